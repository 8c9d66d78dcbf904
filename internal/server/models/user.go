package models

type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
}
