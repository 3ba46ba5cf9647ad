// Copyright 2022 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package beamtest

// FaultCategory is the probable cause of a mismatch.
type FaultCategory int

const (
	NoFault FaultCategory = iota
	// MutUpset is a stable corruption of the cell under test (SEU).
	MutUpset
	// TransientFirstRead is a glitch seen only by the first live read (SET).
	TransientFirstRead
	// TransientSecondRead is a glitch seen only by the second live read.
	TransientSecondRead
	// ReferenceUnstable means the reference storage disagreed with itself.
	ReferenceUnstable
	// AmbiguousMultiFault covers faults on both sides that cannot be localized.
	AmbiguousMultiFault

	numCategories
)

var categoryNames = [numCategories]string{
	NoFault:             "NO_FAULT",
	MutUpset:            "MUT_UPSET",
	TransientFirstRead:  "TRANSIENT_FIRST_READ",
	TransientSecondRead: "TRANSIENT_SECOND_READ",
	ReferenceUnstable:   "REFERENCE_UNSTABLE",
	AmbiguousMultiFault: "AMBIGUOUS_MULTI_FAULT",
}

// String returns the short tag used in reports.
func (c FaultCategory) String() string {
	if c < 0 || c >= numCategories {
		return "UNKNOWN"
	}
	return categoryNames[c]
}

// Categories lists every category in tag order.
func Categories() []FaultCategory {
	c := make([]FaultCategory, numCategories)
	for i := range c {
		c[i] = FaultCategory(i)
	}
	return c
}

// Classify maps two live reads (sarr) and two reference reads (farr) to
// exactly one category. It depends on nothing but its arguments.
func Classify(sarr1, sarr2, farr1, farr2 Word) FaultCategory {
	liveStable := sarr1 == sarr2
	refStable := farr1 == farr2
	switch {
	case liveStable && refStable && sarr1 == farr1:
		return NoFault
	case liveStable && refStable:
		return MutUpset
	case liveStable:
		return ReferenceUnstable
	case refStable && sarr2 == farr2:
		return TransientFirstRead
	case refStable && sarr1 == farr1:
		return TransientSecondRead
	default:
		return AmbiguousMultiFault
	}
}
