package dashboard

import (
	"encoding/json"
	"html/template"
	"strconv"

	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/domain"
)

func toJSON(v interface{}) template.JS {
	b, err := json.Marshal(v)
	if err != nil {
		return template.JS("null")
	}
	return template.JS(b)
}

// statusClass picks the colour of the bin visual.
func statusClass(s domain.TrashStatus) string {
	switch s {
	case domain.StatusCritical:
		return "critical"
	case domain.StatusFull:
		return "full"
	case domain.StatusEmpty:
		return "empty"
	}
	return "normal"
}

func itoa(n int) string { return strconv.Itoa(n) }

func fmtFloat(v float64, prec int) string { return strconv.FormatFloat(v, 'f', prec, 64) }
