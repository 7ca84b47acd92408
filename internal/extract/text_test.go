package extract

import (
	"testing"

	"github.com/ppiankov/factlock/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisibleText(t *testing.T) {
	html := `<html><head><title>Offer 2026</title><style>td { width: 600px; }</style></head>
<body><table width="600"><tr><td>Priced at <b>$500,000</b>.</td></tr></table>
<script>var x = 42;</script></body></html>`

	text, err := VisibleText(html)
	require.NoError(t, err)

	assert.Contains(t, text, "Priced at")
	assert.Contains(t, text, "$500,000")
	assert.NotContains(t, text, "600")
	assert.NotContains(t, text, "42")
	assert.NotContains(t, text, "2026")
}

func TestPrepareDrafts(t *testing.T) {
	drafts := model.DraftPair{
		MMSDraft:   "Comps <3 this home: $480,000",
		EmailDraft: `<p style="margin: 12px">Priced at $500,000</p>`,
	}

	unchanged, err := PrepareDrafts(drafts, false)
	require.NoError(t, err)
	assert.Equal(t, drafts, unchanged)

	stripped, err := PrepareDrafts(drafts, true)
	require.NoError(t, err)
	assert.Equal(t, drafts.MMSDraft, stripped.MMSDraft, "MMS drafts are always plain text")
	assert.Equal(t, "Priced at $500,000", stripped.EmailDraft)

	plain := model.DraftPair{EmailDraft: "Priced at $500,000 (5 > 4)"}
	kept, err := PrepareDrafts(plain, true)
	require.NoError(t, err)
	assert.Equal(t, plain, kept)
}
