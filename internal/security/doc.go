// Package security はパスワードハッシュ、汎用署名トークン、注文番号生成、
// 表示名のサニタイズを提供する。
//
// いずれもセッション管理からは独立しており、鍵や設定はコンストラクタで注入する。
package security
