// Package label lays out child and guardian wristbands as ZPL markup.
package label

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"checkin-server-go/models"
)

const (
	childNameMax       = 22
	childGuardianMax   = 25
	guardianNameMax    = 22
	guardianChildMax   = 25
	childOffset        = 70 // mm from the end of the usable area to the text block
	guardianOffset     = 95
	guardianIDOffset   = 55
	edgeMarkerDistance = 35
)

// Column (x) of each child name on a guardian band. Only five fit.
var guardianChildColumns = [...]int{70, 35, 105, 0, 140}

// upper returns s in upper case. A Caser keeps state, so one is built per call.
func upper(s string) string {
	return cases.Upper(language.BrazilianPortuguese).String(s)
}

// ProcessName fits a name into a fixed-width zone. Names with more than
// three words keep the first two and the last; maxLength > 0 truncates.
func ProcessName(fullName string, maxLength int) string {
	name := strings.TrimSpace(fullName)
	if words := strings.Fields(name); len(words) > 3 {
		name = words[0] + " " + words[1] + " " + words[len(words)-1]
	}
	if maxLength > 0 {
		if r := []rune(name); len(r) > maxLength {
			name = string(r[:maxLength])
		}
	}
	return name
}

// SanitizeField strips the ZPL control characters ^ ~ and \
func SanitizeField(value string) string {
	return strings.NewReplacer("^", "", "~", "", `\`, "").Replace(value)
}

func header(b *strings.Builder, g models.Geometry) {
	b.WriteString("^XA\n^CI28\n^PW192\n")
	fmt.Fprintf(b, "^LL%d\n", g.LabelLength*g.DotsPerUnit)
}

func footer(b *strings.Builder, g models.Geometry) {
	b.WriteString("^FO140,1^A0R,30,35^FD|^FS\n")
	fmt.Fprintf(b, "^FO140,%d^A0R,30,35^FD|^FS\n", g.UsableArea-edgeMarkerDistance)
	b.WriteString("^PQ1,0,1,Y\n^XZ")
}

// GenerateChildLabel builds the wristband worn by the child
func GenerateChildLabel(r models.ChildRecord, g models.Geometry) string {
	pos := g.UsableArea - childOffset*g.DotsPerUnit
	child := SanitizeField(upper(ProcessName(r.NomeCrianca, childNameMax)))
	guardian := SanitizeField(upper(ProcessName(r.NomeResponsavel, childGuardianMax)))

	var b strings.Builder
	header(&b, g)
	fmt.Fprintf(&b, "^FO80,%d^A0R,60,50^FD%s^FS\n", pos, child)
	fmt.Fprintf(&b, "^FO50,%d^A0R,30,40^FDIdade: %s anos      Cod.:%d^FS\n", pos, SanitizeField(r.Idade), r.ID)
	fmt.Fprintf(&b, "^FO10,%d^A0R,30,35^FDRsp: %s^FS\n", pos, guardian)
	footer(&b, g)
	return b.String()
}

// GenerateGuardianLabel builds the band kept by the guardian. Only the
// first five child names are printed.
func GenerateGuardianLabel(guardianName string, childNames []string, groupCode int, g models.Geometry) string {
	pos := g.UsableArea - guardianOffset*g.DotsPerUnit
	idPos := pos + guardianIDOffset*g.DotsPerUnit
	guardian := SanitizeField(upper(ProcessName(guardianName, guardianNameMax)))

	var b strings.Builder
	header(&b, g)
	b.WriteString("^FH\n")
	fmt.Fprintf(&b, "^FO70,%d^A0R,40,45^FDID:%d^FS\n", idPos, groupCode)
	fmt.Fprintf(&b, "^FO10,%d^A0R,20,25^FDRsp:%s^FS\n", idPos, guardian)
	for k, x := range guardianChildColumns {
		name := ""
		if k < len(childNames) {
			name = SanitizeField(upper(ProcessName(childNames[k], guardianChildMax)))
		}
		fmt.Fprintf(&b, "^FO%d,%d^A0R,30,35^FD%s^FS\n", x, pos, name)
	}
	b.WriteString("\n")
	footer(&b, g)
	return b.String()
}
