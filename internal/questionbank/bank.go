package questionbank

import (
	_ "embed"
	"encoding/json"
	"log"

	"hscplanner-backend/internal/models"
)

//go:embed bank.json
var bankJSON []byte

type bundledData struct {
	Banks   map[string]models.SubjectBank `json:"banks"`
	Default models.SubjectBank            `json:"default"`
}

// loadBundledBank parses the shipped question set. The asset is part of the
// binary, so a parse failure is a build defect; we log and fall back to an
// empty bank rather than refusing to start.
func loadBundledBank() bundledData {
	var data bundledData
	if err := json.Unmarshal(bankJSON, &data); err != nil {
		log.Printf("question bank: failed to parse bundled bank: %v", err)
		data.Banks = map[string]models.SubjectBank{}
	}
	return data
}
