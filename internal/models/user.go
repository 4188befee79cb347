package models

import (
	"time"
)

type Location struct {
	Address string  `json:"address" dynamodbav:"address"`
	Lat     float64 `json:"lat" dynamodbav:"lat"`
	Lon     float64 `json:"lon" dynamodbav:"lon"`
	City    string  `json:"city" dynamodbav:"city"`
	State   string  `json:"state" dynamodbav:"state"`
	Country string  `json:"country" dynamodbav:"country"`
	Pincode string  `json:"pincode" dynamodbav:"pincode"`
}

type GovernmentID struct {
	IDName  string `json:"idName" dynamodbav:"id_name"`
	IDValue string `json:"idValue" dynamodbav:"id_value"`
}

type SocialLinks struct {
	Facebook  string `json:"facebook" dynamodbav:"facebook"`
	Instagram string `json:"instagram" dynamodbav:"instagram"`
}

type User struct {
	ID             string       `json:"_id" dynamodbav:"id"`
	PhoneNo        string       `json:"phoneNo" dynamodbav:"phone_no"`
	Username       string       `json:"username" dynamodbav:"username"`
	Email          string       `json:"email,omitempty" dynamodbav:"email,omitempty"`
	PasswordHash   string       `json:"-" dynamodbav:"password_hash"`
	Role           string       `json:"role" dynamodbav:"role"`
	Gender         string       `json:"gender" dynamodbav:"gender"`
	DOB            *time.Time   `json:"dob,omitempty" dynamodbav:"dob,omitempty"`
	Age            int          `json:"age,omitempty" dynamodbav:"age,omitempty"`
	ProfilePic     string       `json:"profilePic" dynamodbav:"profile_pic"`
	Location       Location     `json:"location" dynamodbav:"location"`
	GovernmentID   GovernmentID `json:"governmentId" dynamodbav:"government_id"`
	LanguageSpoken []string     `json:"languageSpoken" dynamodbav:"language_spoken"`
	Bio            string       `json:"bio" dynamodbav:"bio"`
	SocialLinks    SocialLinks  `json:"socialLinks" dynamodbav:"social_links"`
	Documents      []string     `json:"documents" dynamodbav:"documents"`
	IsVerified     bool         `json:"isVerified" dynamodbav:"is_verified"`
	CreatedAt      time.Time    `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt      time.Time    `json:"updatedAt" dynamodbav:"updated_at"`
}

// Valid values for User.Role and User.Gender.
var (
	Roles   = []string{"Farmer", "Logistics"}
	Genders = []string{"Male", "Female", "Other"}
)

func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

func ValidGender(gender string) bool {
	for _, g := range Genders {
		if g == gender {
			return true
		}
	}
	return false
}

func (u *User) GetPK() string {
	return "USER#" + u.PhoneNo
}

func (u *User) GetSK() string {
	return "METADATA"
}
