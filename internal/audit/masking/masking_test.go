package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret("  "))
	assert.Equal(t, "****", MaskSecret("abc"))
	assert.Equal(t, "****5678", MaskSecret("081234-5678"))
	assert.Equal(t, "****@example.com", MaskSecret("budi@example.com"))
}

func TestMaskFields(t *testing.T) {
	out := MaskFields(map[string]any{
		"name":  "Apotek Sehat",
		"Email": "ops@sehat.id",
		"count": 3,
		"nested": map[string]any{
			"phone": "0812345678",
		},
		" ": "dropped",
	}, "email", "phone")

	assert.Equal(t, "Apotek Sehat", out["name"])
	assert.Equal(t, "****@sehat.id", out["Email"])
	assert.Equal(t, 3, out["count"])
	assert.Equal(t, "****5678", out["nested"].(map[string]any)["phone"])
	assert.NotContains(t, out, " ")
	assert.Nil(t, MaskFields(nil, "email"))
}
