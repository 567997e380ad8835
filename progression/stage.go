// PTRA: Patient Trajectory Analysis Library
// Copyright (c) 2022 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/ptra/blob/master/LICENSE.txt>.

package progression

import (
	"fmt"
	"sort"
)

// Stage is a chronic kidney disease stage on the progression scale 0-6. Stage 0 marks CKD without a specified stage,
// stage 6 marks end stage renal disease on dialysis.
type Stage int

const (
	StageUnspecified Stage = 0
	Stage1           Stage = 1
	Stage2           Stage = 2
	Stage3           Stage = 3
	Stage4           Stage = 4
	Stage5           Stage = 5
	StageESRD        Stage = 6
)

// String returns the medical name of a stage as used in reports.
func (s Stage) String() string {
	switch {
	case s == StageUnspecified:
		return "CKD (unspecified)"
	case s == StageESRD:
		return "End Stage Renal Disease"
	case s > StageUnspecified && s < StageESRD:
		return fmt.Sprint("Stage ", int(s))
	}
	return fmt.Sprint("Unknown stage ", int(s))
}

// stageCodes maps SNOMED CT codes onto the CKD stage they diagnose.
var stageCodes = map[string]Stage{
	"431855005": Stage1,           // Chronic kidney disease stage 1 (disorder)
	"431856006": Stage2,           // Chronic kidney disease stage 2 (disorder)
	"433144002": Stage3,           // Chronic kidney disease stage 3 (disorder)
	"431857002": Stage4,           // Chronic kidney disease stage 4 (disorder)
	"433146000": Stage5,           // Chronic kidney disease stage 5 (disorder)
	"714153000": Stage5,           // Chronic kidney disease stage 5 with transplant (disorder)
	"714152005": StageESRD,        // Chronic kidney disease stage 5 on dialysis (disorder)
	"709044004": StageUnspecified, // Chronic kidney disease (disorder)
}

// relatedCodes lists CKD related SNOMED CT codes that do not map onto a stage. They only count towards the number of
// patients with some form of CKD.
var relatedCodes = map[string]string{
	"713313000": "Chronic kidney disease mineral and bone disorder (disorder)",
	"722149000": "Chronic kidney disease due to and following excision of neoplasm of kidney (disorder)",
	"726018006": "Autosomal dominant tubulointerstitial kidney disease (disorder)",
	"723373006": "Uromodulin related autosomal dominant tubulointerstitial kidney disease (disorder)",
}

// StageForCode looks up the CKD stage for a diagnosis code. The bool result is false for codes that are not in the
// registry.
func StageForCode(code string) (Stage, bool) {
	stage, ok := stageCodes[code]
	return stage, ok
}

// IsCKDRelated checks if a diagnosis code is any of the CKD codes, staged or not.
func IsCKDRelated(code string) bool {
	if _, ok := stageCodes[code]; ok {
		return true
	}
	_, ok := relatedCodes[code]
	return ok
}

// StagedCodes returns the registry's codes, sorted by stage and then by code.
func StagedCodes() []string {
	codes := make([]string, 0, len(stageCodes))
	for code := range stageCodes {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		si, sj := stageCodes[codes[i]], stageCodes[codes[j]]
		if si != sj {
			return si < sj
		}
		return codes[i] < codes[j]
	})
	return codes
}

// RelatedCodes returns the unstaged CKD related codes with their descriptions.
func RelatedCodes() map[string]string {
	result := make(map[string]string, len(relatedCodes))
	for code, desc := range relatedCodes {
		result[code] = desc
	}
	return result
}
