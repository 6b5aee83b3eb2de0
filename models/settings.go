package models

// Settings are the operator-tunable values of one event
type Settings struct {
	MaxBackups     int      `json:"MAX_BACKUPS"`
	FormRows       int      `json:"NUM_LINHAS_FORMULARIO_CADASTRO"`
	LoginPassword  string   `json:"SENHA_LOGIN"`
	AdminPassword  string   `json:"SENHA_ADMIN_REAL"`
	LabelLength    int      `json:"TAMPULSEIRA"` // Wristband length in mm
	DotsPerUnit    int      `json:"DOTS"`        // Printer dots per mm
	Clasp          int      `json:"FECHO"`       // Clasp/overlap length in mm
	CommonKeywords []string `json:"PALAVRAS_CHAVE_COMUM"`
	DebugMode      bool     `json:"ZPL_DEBUG_MODE"` // Return label markup for review instead of printing
	UsableArea     int      `json:"PULSEIRAUTIL"`   // Derived, see Derive
}

// Derive recomputes the usable label area in print dots
func (s *Settings) Derive() {
	s.UsableArea = (s.LabelLength - s.Clasp) * s.DotsPerUnit
}

// Geometry returns the print geometry the label generator works with
func (s Settings) Geometry() Geometry {
	return Geometry{
		LabelLength: s.LabelLength,
		DotsPerUnit: s.DotsPerUnit,
		UsableArea:  (s.LabelLength - s.Clasp) * s.DotsPerUnit,
	}
}

// Geometry is the fixed label geometry used when laying out wristbands
type Geometry struct {
	LabelLength int
	DotsPerUnit int
	UsableArea  int
}
