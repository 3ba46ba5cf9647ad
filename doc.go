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

/*

Package beamtest runs memory and compute units through repeated self-checks
while they are under particle irradiation, and attributes each corrupted value
to a probable physical cause: a persistent single-event upset (SEU) in the
storage cell, or a single-event transient (SET) in the read path.

Each iteration compares the memory under test against a PatternSource, either
computed (immune to upsets) or stored in its own Region (exposed to upsets and
so read twice). In Diagnostic mode a mismatch triggers second reads of both
sides and the four samples are classified by Classify. The live cell is then
repaired, the fault counted, and a record streamed to the Reporter, whose
output is a YAML document with periodic heartbeat comments:

	---
	hw: MSP430F2619
	test: cache_march
	...
	d:
	 - i: 1041
	   MUT_UPSET: {i: 17, 65279: 65535, 65279: 65535}
	# 1080, 1, 1, 3666752

A MarchSequence replaces the flat pattern with chained address sweeps that
exercise the address decoders.

The payload and programs sub-packages supply the computations under test and
the ready-made test configurations.

*/
package beamtest
