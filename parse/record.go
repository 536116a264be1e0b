package parse

import (
	"strings"

	"widtech.dev/atfrp/at"
)

type recordKey struct {
	label     string
	transform func(string) string
}

var recordKeys = map[string]recordKey{
	"model":  {label: "Model"},
	"vendor": {label: "Manufacturer"},
	"sales":  {label: "Sales Code"},
	"ver":    {label: "Software Version"},
	"did":    {label: "DID", transform: strings.ToUpper},
	"un":     {label: "Device ID"},
	"capa":   {label: "Capacity", transform: func(v string) string { return v + " GB" }},
	"fwver":  {label: "Firmware Version"},
}

// Record parses a "@#key=value;key=value@#" record. Keys are matched case
// insensitively against a fixed table; unrecognized keys and pairs without
// '=' are skipped. Fields keep the order in which they appear.
func Record(text string) []Field {
	body := text
	if _, after, ok := strings.Cut(body, at.MarkerRecordEdge); ok {
		body = after
	}
	if before, _, ok := strings.Cut(body, at.MarkerRecordEdge); ok {
		body = before
	}

	var fields []Field
	for _, pair := range strings.Split(body, ";") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, found := recordKeys[strings.ToLower(strings.TrimSpace(k))]
		if !found {
			continue
		}
		v = strings.TrimSpace(v)
		if key.transform != nil {
			v = key.transform(v)
		}
		fields = append(fields, Field{Label: key.label, Value: v})
	}
	return fields
}
