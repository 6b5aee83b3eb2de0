package models

import "time"

// PrintStatus marks whether a child's wristband has been printed
type PrintStatus string

const (
	StatusPrinted    PrintStatus = "S"
	StatusNotPrinted PrintStatus = "N"
)

// ChildRecord represents one registered child
type ChildRecord struct {
	ID              int         `json:"id"`              // Unique record ID (max existing + 1)
	NomeCrianca     string      `json:"nomeCrianca"`     // Child name
	NomeResponsavel string      `json:"nomeResponsavel"` // Guardian name
	Telefone        string      `json:"telefone"`
	Idade           string      `json:"idade"`
	Comum           string      `json:"comum"`
	StatusImpresso  PrintStatus `json:"statusImpresso"`
	Portaria        string      `json:"portaria"` // Gate letter the child came in through
	CodResp         int         `json:"cod_resp"` // Guardian group code, shared by one batch
}

// PartialRecord holds the operator-entered fields of a new registration
type PartialRecord struct {
	NomeCrianca     string `json:"nomeCrianca" validate:"required"`
	NomeResponsavel string `json:"nomeResponsavel" validate:"required"`
	Idade           string `json:"idade" validate:"required"`
	Telefone        string `json:"telefone" validate:"required"`
	Comum           string `json:"comum" validate:"required"`
	Portaria        string `json:"portaria" validate:"required,len=1,uppercase,alpha"`
}

// Instance is one event registered on this station
type Instance struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserDetails identifies the person responsible for an instance
type UserDetails struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// BackupInfo describes one occupied backup slot
type BackupInfo struct {
	Slot      int        `json:"slot"`
	Key       string     `json:"key"`
	CreatedAt *time.Time `json:"createdAt"` // nil when the slot content can't be read
}
