// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
This file bridges the build system and the runtime knowledge base. It uses the
Go embed package to bake insurance_catalog.yaml directly into the compiled
binary, so the curated reference entries are immutable at runtime and travel
with the executable.
*/

package catalogdata

import (
	_ "embed"
)

// InsuranceCatalog holds the raw byte content of the 'insurance_catalog.yaml' file.
//
// Populated at compile time via the Go 'embed' directive. Baking the catalog
// into the binary guarantees every replica serves the same reference entries
// without a filesystem dependency.
//
// Usage:
//
//	// Pass these bytes directly to yaml.Unmarshal
//	err := yaml.Unmarshal(catalogdata.InsuranceCatalog, &targetStruct)
//
//go:embed insurance_catalog.yaml
var InsuranceCatalog []byte
