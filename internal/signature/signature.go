package signature

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/fablekeep/continuity/internal/story"
)

// Domain prefixes for content-addressed identity. The version suffix
// enables future algorithm migration without colliding with old hashes.
const (
	DomainAlert     = "continuity/alert/v1"
	DomainAssertion = "continuity/assertion/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null separator prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Alert computes the conflict signature for a candidate or persisted alert:
// the hash of (project, alert type, sorted conflicting-element set).
//
// The element slice is sorted on a copy; discovery order never influences
// the signature. Two scans that find the same conflict through different
// code paths therefore produce the same signature, which is what makes
// re-scans idempotent.
func Alert(projectID string, alertType story.AlertType, elements []story.ElementRef) (string, error) {
	sorted := make([]story.ElementRef, len(elements))
	copy(sorted, elements)
	story.SortElements(sorted)

	elemList := make([]any, len(sorted))
	for i, e := range sorted {
		elemList[i] = e.CanonicalMap()
	}

	obj := map[string]any{
		"project_id": projectID,
		"alert_type": string(alertType),
		"elements":   elemList,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("alert signature: marshal: %w", err)
	}
	return hashWithDomain(DomainAlert, canonical), nil
}

// Assertion computes a stable identity for an attribute assertion. Used in
// logs and diagnostics where a compact reference to "this exact fact at
// this exact point in the telling" is needed.
func Assertion(a story.AttributeAssertion) (string, error) {
	obj := map[string]any{
		"character_id": a.CharacterID,
		"attribute":    a.Attribute,
		"value":        a.Value,
		"scene_id":     a.SceneID,
		"seq":          a.Seq,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("assertion signature: marshal: %w", err)
	}
	return hashWithDomain(DomainAssertion, canonical), nil
}

// MustAlert is like Alert but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustAlert(projectID string, alertType story.AlertType, elements []story.ElementRef) string {
	sig, err := Alert(projectID, alertType, elements)
	if err != nil {
		panic(err)
	}
	return sig
}
