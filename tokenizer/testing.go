// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package tokenizer

import (
	"os"
	"path/filepath"
)

const fixtureVocab = `{
  "<s>": 0,
  "<pad>": 1,
  "</s>": 2,
  "<unk>": 3,
  "hello": 4,
  "Ġworld": 5,
  "h": 6,
  "e": 7,
  "l": 8,
  "o": 9,
  "Ġ": 10,
  "w": 11,
  "r": 12,
  "d": 13,
  "ll": 14,
  "he": 15,
  "hell": 16,
  "Ġw": 17,
  "or": 18,
  "ld": 19,
  "orld": 20,
  "world": 21,
  "Ġhello": 22
}`

const fixtureMerges = `#version: 0.2
l l
h e
he ll
hell o
` + WordBoundary + ` w
o r
l d
or ld
` + WordBoundary + `w orld
w orld
` + WordBoundary + ` hello
`

// WriteFixture writes a small vocabulary and merges file pair under dir
// and returns their paths. The fixture covers the words "hello" and
// "world" in both positions plus the four special tokens, and is shared
// by packages that need a working tokenizer without real model artifacts.
func WriteFixture(dir string) (vocabPath, mergesPath string, err error) {
	vocabPath = filepath.Join(dir, "vocab.json")
	if err = os.WriteFile(vocabPath, []byte(fixtureVocab), 0o644); err != nil {
		return "", "", err
	}
	mergesPath = filepath.Join(dir, "merges.txt")
	if err = os.WriteFile(mergesPath, []byte(fixtureMerges), 0o644); err != nil {
		return "", "", err
	}
	return vocabPath, mergesPath, nil
}
