package service

import (
	"encoding/json"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// JSONPatchContentType - тип тела для RFC 6902; всё остальное считается merge patch (RFC 7386)
const JSONPatchContentType = "application/json-patch+json"

// protectedFields меняются только сервером или через reorder
var protectedFields = map[string]bool{
	"id":            true,
	"position":      true,
	"priorityIndex": true,
	"orderIndex":    true,
	"createdAt":     true,
	"updatedAt":     true,
}

// applyPatch применяет patch к документу doc
func applyPatch(doc, patch []byte, contentType string) ([]byte, error) {
	if isJSONPatch(contentType) {
		ops, err := jsonpatch.DecodePatch(patch)
		if err != nil {
			return nil, validationf("invalid json patch: %v", err)
		}
		for _, op := range ops {
			path, err := op.Path()
			if err != nil {
				return nil, validationf("invalid json patch: %v", err)
			}
			if field := topField(path); protectedFields[field] {
				return nil, validationf("field %s cannot be patched", field)
			}
		}
		out, err := ops.Apply(doc)
		if err != nil {
			return nil, validationf("failed to apply json patch: %v", err)
		}
		return out, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil {
		return nil, validationf("merge patch must be a JSON object: %v", err)
	}
	for field := range fields {
		if protectedFields[field] {
			return nil, validationf("field %s cannot be patched", field)
		}
	}
	out, err := jsonpatch.MergePatch(doc, patch)
	if err != nil {
		return nil, validationf("failed to apply merge patch: %v", err)
	}
	return out, nil
}

func isJSONPatch(contentType string) bool {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.EqualFold(strings.TrimSpace(mt), JSONPatchContentType)
}

// topField возвращает первый сегмент JSON Pointer: "/title" -> "title"
func topField(path string) string {
	path = strings.TrimPrefix(path, "/")
	field, _, _ := strings.Cut(path, "/")
	field = strings.ReplaceAll(field, "~1", "/")
	return strings.ReplaceAll(field, "~0", "~")
}
