package models

type Form struct {
	ID    string
	Title string
}
