package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBatch(t *testing.T) {
	full := PartialRecord{NomeCrianca: "Ana", NomeResponsavel: "Maria", Idade: "3", Telefone: "1111", Comum: "Bonfim"}

	t.Run("drops blank rows and stamps gate", func(t *testing.T) {
		batch, err := ValidateBatch([]PartialRecord{full, {}, full}, " b ")
		require.NoError(t, err)
		require.Len(t, batch, 2)
		assert.Equal(t, "B", batch[0].Portaria)
	})

	t.Run("started row missing a field", func(t *testing.T) {
		partial := full
		partial.Telefone = ""
		_, err := ValidateBatch([]PartialRecord{full, partial}, "A")
		assert.ErrorIs(t, err, ErrIncompleteRow)
	})

	t.Run("missing gate", func(t *testing.T) {
		_, err := ValidateBatch([]PartialRecord{full}, "")
		assert.ErrorIs(t, err, ErrIncompleteRow)
	})

	t.Run("gate must be a letter", func(t *testing.T) {
		_, err := ValidateBatch([]PartialRecord{full}, "1")
		assert.ErrorIs(t, err, ErrIncompleteRow)
	})

	t.Run("only blank rows", func(t *testing.T) {
		_, err := ValidateBatch([]PartialRecord{{}, {}}, "A")
		assert.ErrorIs(t, err, ErrEmptyBatch)
	})
}

func TestComputeStats(t *testing.T) {
	records := []ChildRecord{
		{Idade: "3", Comum: "Jardim Bonfim"},
		{Idade: " 3 ", Comum: "Centro"},
		{Idade: "5", Comum: "BOM FIM"},
		{Idade: "4", Comum: "Vila Nova"},
	}

	stats := ComputeStats(records, []string{"bonfim", "bom fim"})
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.ThreeYearOld)
	assert.Equal(t, 2, stats.CommonMatch)
	assert.False(t, stats.OverCapacity)

	many := make([]ChildRecord, CapacityAlert+1)
	assert.True(t, ComputeStats(many, nil).OverCapacity)
}

func TestSettingsGeometry(t *testing.T) {
	s := Settings{LabelLength: 254, Clasp: 30, DotsPerUnit: 8}
	g := s.Geometry()
	assert.Equal(t, 1792, g.UsableArea)
	assert.Equal(t, 254, g.LabelLength)

	s.Derive()
	assert.Equal(t, 1792, s.UsableArea)
}
