// Package ner provides the named-entity recognition capability used to fill
// claimant and village fields the regex extractor missed.
//
// A Recognizer is either available (backed by a model) or unavailable. The
// choice is made once by Handle at start-up and never revisited.
package ner

import (
	"context"
	"errors"
)

// Entity labels understood by the extractor.
const (
	LabelPerson = "PERSON"
	LabelGPE    = "GPE"
	LabelLoc    = "LOC"
	LabelOrg    = "ORG"
)

// ErrModelUnavailable is returned by an unavailable Recognizer.
var ErrModelUnavailable = errors.New("ner model not available")

// Entity is one labeled span of text.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Recognizer labels spans of text.
type Recognizer interface {
	Name() string
	Available() bool
	Entities(ctx context.Context, text string) ([]Entity, error)
}

// KnownLabel reports whether label is one of the supported entity labels.
func KnownLabel(label string) bool {
	switch label {
	case LabelPerson, LabelGPE, LabelLoc, LabelOrg:
		return true
	}
	return false
}

type unavailable struct {
	reason string
}

// Unavailable returns a Recognizer that never recognizes anything.
func Unavailable(reason string) Recognizer {
	return unavailable{reason: reason}
}

func (u unavailable) Name() string    { return "none" }
func (u unavailable) Available() bool { return false }

// Reason explains why the model is unavailable.
func (u unavailable) Reason() string { return u.reason }

func (u unavailable) Entities(context.Context, string) ([]Entity, error) {
	return nil, ErrModelUnavailable
}
