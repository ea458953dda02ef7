// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"strings"
)

// Role はユーザーの役割を表す。
type Role string

const (
	// RoleCustomer は注文者。
	RoleCustomer Role = "CUSTOMER"
	// RoleRider は配達員。
	RoleRider Role = "RIDER"
	// RoleRestaurant は店舗。
	RoleRestaurant Role = "RESTAURANT"
	// RoleAdmin は管理者。
	RoleAdmin Role = "ADMIN"
)

// ParseRole は文字列をRoleに変換する。大文字小文字は区別しない。
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}

// Valid は定義済みのRoleかどうかを返す。
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleRider, RoleRestaurant, RoleAdmin:
		return true
	default:
		return false
	}
}

// AccountStatus はアカウントの状態を表す。
type AccountStatus string

const (
	// StatusActive はログイン可能な状態。
	StatusActive AccountStatus = "ACTIVE"
	// StatusPending は審査待ち（店舗・配達員の登録直後など）。
	StatusPending AccountStatus = "PENDING"
	// StatusSuspended は利用停止中。
	StatusSuspended AccountStatus = "SUSPENDED"
)

// ParseAccountStatus は文字列をAccountStatusに変換する。
func ParseAccountStatus(s string) (AccountStatus, error) {
	st := AccountStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusActive, StatusPending, StatusSuspended:
		return st, nil
	default:
		return "", fmt.Errorf("unknown account status: %q", s)
	}
}

// CanLogin はログインを許可する状態かどうかを返す。
func (s AccountStatus) CanLogin() bool {
	return s == StatusActive
}
