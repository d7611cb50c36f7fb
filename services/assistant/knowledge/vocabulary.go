// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package knowledge

import (
	"sort"
	"strings"
)

// vocabulary maps common insurance terms to plain-language definitions.
// Served verbatim by the vocabulary endpoints; not part of RAG scoring.
var vocabulary = map[string]string{
	"deductible":            "Amount you pay before insurance coverage begins",
	"premium":               "Regular payment to maintain your insurance policy",
	"copay":                 "Fixed amount paid for covered services",
	"coinsurance":           "Percentage of costs you pay after deductible",
	"out-of-pocket maximum": "Most you pay in a year; insurance pays 100% after",
	"beneficiary":           "Person designated to receive insurance benefits",
	"exclusion":             "What your policy does not cover",
	"pre-authorization":     "Approval needed before certain services",
	"claim":                 "Formal request for insurance coverage/payment",
	"policyholder":          "Person who owns the insurance policy",
}

// TermDefinition looks up an insurance term, case-insensitively.
func TermDefinition(term string) (string, bool) {
	def, ok := vocabulary[strings.ToLower(strings.TrimSpace(term))]
	return def, ok
}

// VocabularyTerms returns all known terms in sorted order.
func VocabularyTerms() []string {
	terms := make([]string, 0, len(vocabulary))
	for t := range vocabulary {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}
