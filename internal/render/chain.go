package render

import (
	"strconv"

	"github.com/pterm/pterm"

	"github.com/manifest-network/powchain/internal/models"
)

const (
	hashChars = 10
	dataChars = 20
)

// ChainTable renders one row per block with its verification status.
func ChainTable(state models.ChainState) (string, error) {
	rows := pterm.TableData{{"#", "Timestamp", "Data", "Previous Hash", "Nonce", "Hash", "Status"}}
	for i, b := range state.Blocks {
		status := models.StatusValid
		if i < len(state.Reports) {
			status = state.Reports[i].Status
		}
		rows = append(rows, []string{
			strconv.FormatUint(b.Index, 10),
			FormatTimestamp(b.Timestamp),
			TruncateData(b.Data, dataChars),
			FormatHash(b.PreviousHash, hashChars),
			strconv.FormatUint(b.Nonce, 10),
			FormatHash(b.Hash, hashChars),
			StatusLabel(status),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(rows).Srender()
}

// StatusLabel colors a block status.
func StatusLabel(status models.BlockStatus) string {
	switch status {
	case models.StatusTampered:
		return pterm.LightRed(string(status))
	case models.StatusDownstreamInvalid:
		return pterm.LightYellow(string(status))
	default:
		return pterm.LightGreen(string(status))
	}
}

// Summary is the one-panel overview printed under the table.
func Summary(state models.ChainState) string {
	verdict := pterm.LightGreen("Chain Valid")
	if !state.Valid {
		verdict = pterm.LightRed("Chain Invalid")
	}
	text := pterm.Sprintfln("%s  blocks: %d  difficulty: %d", verdict, len(state.Blocks), state.Difficulty)
	if state.LastMineMs != nil {
		text += pterm.Sprintfln("last block mined in %d ms", *state.LastMineMs)
	}
	return pterm.DefaultBox.WithTitle(pterm.LightCyan("|CHAIN|")).WithTitleTopCenter().Sprint(text)
}
