// Package model はドメインモデルを定義する。
package model

import "time"

// ProfileKind はロール別プロフィールの種別を表す。
type ProfileKind string

const (
	// ProfileKindCustomer は注文者プロフィール。
	ProfileKindCustomer ProfileKind = "customer"
	// ProfileKindRider は配達員プロフィール。
	ProfileKindRider ProfileKind = "rider"
	// ProfileKindRestaurant は店舗プロフィール。
	ProfileKindRestaurant ProfileKind = "restaurant"
)

// Profile はロール別プロフィールのタグ付きユニオン。
// CustomerProfile、RiderProfile、RestaurantProfileのいずれか、またはnil（プロフィールなし）。
type Profile interface {
	Kind() ProfileKind
	ProfileID() string
	isProfile()
}

// CustomerProfile は注文者のプロフィール。
type CustomerProfile struct {
	ID             string
	Phone          string
	DefaultAddress string
}

// RiderProfile は配達員のプロフィール。
type RiderProfile struct {
	ID           string
	Phone        string
	VehiclePlate string
	Available    bool
}

// RestaurantProfile は店舗のプロフィール。
type RestaurantProfile struct {
	ID      string
	Name    string
	Address string
	IsOpen  bool
}

// Kind はProfileを実装する。
func (p *CustomerProfile) Kind() ProfileKind { return ProfileKindCustomer }

// ProfileID はProfileを実装する。
func (p *CustomerProfile) ProfileID() string { return p.ID }

func (p *CustomerProfile) isProfile() {}

// Kind はProfileを実装する。
func (p *RiderProfile) Kind() ProfileKind { return ProfileKindRider }

// ProfileID はProfileを実装する。
func (p *RiderProfile) ProfileID() string { return p.ID }

func (p *RiderProfile) isProfile() {}

// Kind はProfileを実装する。
func (p *RestaurantProfile) Kind() ProfileKind { return ProfileKindRestaurant }

// ProfileID はProfileを実装する。
func (p *RestaurantProfile) ProfileID() string { return p.ID }

func (p *RestaurantProfile) isProfile() {}

// ProfileRef はセッショントークンに埋め込むプロフィールへの参照。
// プロフィール本体は含めない。
type ProfileRef struct {
	Kind ProfileKind `json:"kind"`
	ID   string      `json:"id"`
}

// RefOf はProfileからProfileRefを作る。nilの場合はnilを返す。
func RefOf(p Profile) *ProfileRef {
	if p == nil {
		return nil
	}
	return &ProfileRef{Kind: p.Kind(), ID: p.ProfileID()}
}

// Identity は認証済みのプリンシパルを表す。
// 認証成功時に生成され、セッションの間は変更しない。
type Identity struct {
	ID          string
	Email       string
	DisplayName string
	Role        Role
	Status      AccountStatus
	Avatar      string
	Profile     Profile
}

// User は永続化されるアカウントを表す。
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Role         Role
	Status       AccountStatus
	Avatar       string
	Profile      Profile
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity はUserから認証済みIdentityを作る。PasswordHashは含めない。
func (u *User) Identity() *Identity {
	return &Identity{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		Status:      u.Status,
		Avatar:      u.Avatar,
		Profile:     u.Profile,
	}
}
