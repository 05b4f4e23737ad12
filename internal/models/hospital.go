package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Hospital is a directory entry. Its administrator is the party allowed to
// stop a vehicle tracking session.
type Hospital struct {
	gorm.Model
	Name              string  `json:"name" gorm:"not null;index"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	EmailFrom         string  `json:"email_from"`
	AdminEmail        string  `json:"admin_email" gorm:"not null;uniqueIndex"` // stored lower case
	AdminPasswordHash string  `json:"-" gorm:"not null"`
}

// BeforeCreate normalizes the admin e-mail so lookups can match exactly.
func (h *Hospital) BeforeCreate(tx *gorm.DB) error {
	h.AdminEmail = NormalizeEmail(h.AdminEmail)
	return nil
}

// NearbyHospital is a hospital with its distance from a query point.
type NearbyHospital struct {
	ID         uint    `json:"id"`
	Name       string  `json:"name"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	DistanceKM float64 `json:"distance_km"`
}

// User is a registered vehicle driver.
type User struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"not null"`
	Email         string    `json:"email" gorm:"uniqueIndex"`
	PasswordHash  string    `json:"-" gorm:"not null"`
	AadhaarNumber string    `json:"aadhaar_number"`
	Mobile        string    `json:"mobile"`
	Address       string    `json:"address"`
	LicenseNumber string    `json:"license_number"`
	VehicleNumber string    `json:"vehicle_number"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BeforeCreate normalizes e-mail and vehicle number.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	u.VehicleNumber = strings.ToUpper(strings.ReplaceAll(u.VehicleNumber, " ", ""))
	return nil
}

// NormalizeEmail lower-cases and trims an e-mail address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserRegistration is the payload for registering a driver.
type UserRegistration struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8,max=72"`
	AadhaarNumber string `json:"aadhaarNumber" validate:"omitempty,numeric,len=12"`
	Mobile        string `json:"mobile" validate:"omitempty,e164"`
	Address       string `json:"address"`
	LicenseNumber string `json:"licenseNumber"`
	VehicleNumber string `json:"vehicleNumber"`
}
