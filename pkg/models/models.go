package models

import (
	"time"
)

// MenuItem model
type MenuItem struct {
	ID          string    `gorm:"primaryKey;column:id" json:"id" firestore:"id"`
	Name        string    `gorm:"not null;column:name" json:"name" firestore:"name"`
	Description string    `gorm:"column:description" json:"description" firestore:"description"`
	Price       float64   `gorm:"not null;column:price" json:"price" firestore:"price"`
	Category    string    `gorm:"not null;column:category" json:"category" firestore:"category"`
	ImageURL    string    `gorm:"column:imageUrl" json:"imageUrl" firestore:"imageUrl"`
	Available   bool      `gorm:"default:true;column:available" json:"available" firestore:"available"`
	PrepTime    int       `gorm:"not null;column:prepTime" json:"prepTime" firestore:"prepTime"`
	CreatedAt   time.Time `gorm:"autoCreateTime;column:createdAt" json:"createdAt" firestore:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime;column:updatedAt" json:"updatedAt" firestore:"updatedAt"`
}

// TableName specifies the table name for MenuItem model
func (MenuItem) TableName() string {
	return "MenuItem"
}

// Staff model
type Staff struct {
	ID               string     `gorm:"primaryKey;column:id" json:"id" firestore:"id"`
	Name             string     `gorm:"not null;column:name" json:"name" firestore:"name"`
	Email            string     `gorm:"unique;not null;column:email" json:"email" firestore:"email"`
	PhoneNumber      string     `gorm:"unique;not null;column:phoneNumber" json:"phoneNumber" firestore:"phoneNumber"`
	Role             Role       `gorm:"type:text;not null;column:role" json:"role" firestore:"role"`
	IsFrozen         bool       `gorm:"default:false;column:isFrozen" json:"isFrozen" firestore:"isFrozen"`
	DateJoined       time.Time  `gorm:"column:dateJoined" json:"dateJoined" firestore:"dateJoined"`
	AuthUID          *string    `gorm:"column:authUid" json:"authUid,omitempty" firestore:"authUid"`
	PasswordHash     string     `gorm:"column:passwordHash" json:"-" firestore:"passwordHash"`
	TwoFactorEnabled bool       `gorm:"default:false;column:twoFactorEnabled" json:"twoFactorEnabled" firestore:"twoFactorEnabled"`
	TwoFactorSecret  *string    `gorm:"column:twoFactorSecret" json:"-" firestore:"twoFactorSecret"`
	LastLoginAt      *time.Time `gorm:"column:lastLoginAt" json:"lastLoginAt,omitempty" firestore:"lastLoginAt"`
}

// TableName specifies the table name for Staff model
func (Staff) TableName() string {
	return "Staff"
}

// Rating model
type Rating struct {
	ID           string    `gorm:"primaryKey;column:id" json:"id" firestore:"id"`
	OrderID      string    `gorm:"not null;column:orderId" json:"orderId" firestore:"orderId"`
	MenuItemID   string    `gorm:"not null;column:menuItemId" json:"menuItemId" firestore:"menuItemId"`
	CustomerName string    `gorm:"column:customerName" json:"customerName" firestore:"customerName"`
	Stars        int       `gorm:"not null;column:stars" json:"stars" firestore:"stars"`
	Comment      string    `gorm:"column:comment" json:"comment,omitempty" firestore:"comment"`
	CreatedAt    time.Time `gorm:"column:createdAt" json:"createdAt" firestore:"createdAt"`
}

// TableName specifies the table name for Rating model
func (Rating) TableName() string {
	return "Rating"
}

// Counter backs atomic sequence allocation
type Counter struct {
	Name  string `gorm:"primaryKey;column:name" json:"name" firestore:"name"`
	Value int64  `gorm:"not null;default:0;column:value" json:"value" firestore:"value"`
}

// TableName specifies the table name for Counter model
func (Counter) TableName() string {
	return "Counter"
}
