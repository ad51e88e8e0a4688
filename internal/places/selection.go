package places

import (
	"fmt"
	"strings"

	"github.com/seazone-ai/sia/internal/model"
)

const selectionPrefix = "📍 Localização selecionada: **"

// SelectionMessage renders the user message sent when an address is
// picked from the assisted search. The format is a contract: the model
// prompt instructs the agent to read bairro and cidade from these exact
// lines before calling validateLocation.
func SelectionMessage(sel model.PlaceSelection) string {
	return fmt.Sprintf(
		"%s%s**\n- Bairro: %s\n- Cidade: %s\n- Estado: %s",
		selectionPrefix,
		sel.FormattedAddress,
		orNA(sel.Neighborhood),
		orNA(sel.City),
		orNA(sel.State),
	)
}

// ParseSelectionMessage reads a selection message back into its fields.
// Returns false when the text is not a selection message.
func ParseSelectionMessage(text string) (model.PlaceSelection, bool) {
	if !strings.HasPrefix(text, selectionPrefix) {
		return model.PlaceSelection{}, false
	}
	var sel model.PlaceSelection
	for i, line := range strings.Split(text, "\n") {
		if i == 0 {
			rest := strings.TrimPrefix(line, selectionPrefix)
			sel.FormattedAddress = strings.TrimSuffix(rest, "**")
			continue
		}
		switch {
		case strings.HasPrefix(line, "- Bairro: "):
			sel.Neighborhood = naToEmpty(strings.TrimPrefix(line, "- Bairro: "))
		case strings.HasPrefix(line, "- Cidade: "):
			sel.City = naToEmpty(strings.TrimPrefix(line, "- Cidade: "))
		case strings.HasPrefix(line, "- Estado: "):
			sel.State = naToEmpty(strings.TrimPrefix(line, "- Estado: "))
		}
	}
	return sel, true
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

func naToEmpty(v string) string {
	if v == "N/A" {
		return ""
	}
	return v
}
