// Copyright 2024 Google, LLC
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

package query

// stopWords holds common Italian and English function words. Words of three
// runes or fewer are listed for completeness even though the length filter
// already drops them.
var stopWords = map[string]struct{}{
	// Italian
	"il": {}, "lo": {}, "la": {}, "i": {}, "gli": {}, "le": {}, "un": {}, "una": {},
	"di": {}, "da": {}, "a": {}, "in": {}, "per": {}, "con": {}, "su": {}, "come": {},
	"che": {}, "si": {}, "non": {}, "del": {}, "della": {}, "dei": {}, "delle": {},
	"sono": {}, "è": {}, "nella": {}, "nelle": {}, "negli": {}, "degli": {}, "dalla": {},
	"alla": {}, "alle": {}, "sulla": {}, "questo": {}, "questa": {}, "quello": {},
	"quella": {}, "anche": {}, "quando": {}, "perché": {}, "loro": {}, "essere": {},
	"molto": {}, "tutto": {}, "tutti": {}, "dove": {}, "ogni": {},
	// English
	"the": {}, "an": {}, "and": {}, "or": {}, "but": {}, "on": {}, "at": {}, "to": {},
	"for": {}, "of": {}, "with": {}, "by": {}, "from": {}, "as": {}, "is": {}, "was": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "have": {}, "your": {}, "about": {},
	"their": {}, "there": {}, "what": {}, "which": {}, "would": {}, "into": {}, "more": {},
	"than": {}, "they": {}, "them": {}, "were": {}, "been": {}, "will": {}, "when": {},
	"where": {}, "while": {}, "just": {}, "very": {},
}

// IsStopWord reports whether a lower-cased token is a stop word.
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}
