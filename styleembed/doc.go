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


// Package styleembed generates writing-style embeddings from a local ONNX
// model.
//
// The service pairs a BPE tokenizer (package tokenizer) with an ONNX
// Runtime inference session. Model artifacts are three files: the ONNX
// graph, vocab.json, and merges.txt. Nothing is loaded at construction;
// the first embedding call initializes the tokenizer and session exactly
// once, and concurrent first calls share that single initialization.
//
// # Usage
//
//	cfg := styleembed.NewConfig(
//	    styleembed.WithModelPath("models/style.onnx"),
//	    styleembed.WithVocabPath("models/vocab.json"),
//	    styleembed.WithMergesPath("models/merges.txt"),
//	)
//	svc, err := styleembed.NewService(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
//
//	emb, err := svc.EmbedText(ctx, "Thanks so much! Talk soon.")
//
// Style vectors are compared with core.CosineSimilarity. Callers that can
// operate without style signal should treat an initialization error as a
// degraded mode rather than a hard failure; the search engine does exactly
// that.
package styleembed
