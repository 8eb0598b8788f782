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


package styleembed

import (
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// The ONNX Runtime environment is process-wide; initialize it once no
// matter how many sessions are created.
var (
	runtimeOnce sync.Once
	runtimeErr  error
)

func initRuntime(libraryPath string) error {
	runtimeOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		runtimeErr = ort.InitializeEnvironment()
	})
	return runtimeErr
}

// onnxSession is the production Session backed by onnxruntime_go.
type onnxSession struct {
	session     *ort.DynamicAdvancedSession
	inputNames  []string
	outputName  string
	tokenOutput bool
}

// Transformer graphs name their tensors consistently enough to match on.
const (
	inputIDsName      = "input_ids"
	attentionMaskName = "attention_mask"
	tokenTypeIDsName  = "token_type_ids"

	sentenceOutputName = "sentence_embedding"
	tokenOutputName    = "token_embeddings"
)

// newOnnxSession opens the model graph, inspects its declared tensors, and
// builds an inference session bound to a single output: the pooled
// sentence embedding when the graph exports one, else token embeddings.
func newOnnxSession(config *Config) (Session, error) {
	if _, err := os.Stat(config.ModelPath); err != nil {
		return nil, fmt.Errorf("style model not found: %w", err)
	}
	if err := initRuntime(config.LibraryPath); err != nil {
		return nil, fmt.Errorf("initializing onnx runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(config.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("reading model graph: %w", err)
	}

	inputNames := make([]string, 0, len(inputs))
	sawIDs, sawMask := false, false
	for _, info := range inputs {
		switch info.Name {
		case inputIDsName:
			sawIDs = true
		case attentionMaskName:
			sawMask = true
		case tokenTypeIDsName:
			// Fed as zeros at run time.
		default:
			return nil, fmt.Errorf("model declares unsupported input %q", info.Name)
		}
		inputNames = append(inputNames, info.Name)
	}
	if !sawIDs || !sawMask {
		return nil, fmt.Errorf("model must declare %s and %s inputs", inputIDsName, attentionMaskName)
	}

	outputName, tokenOutput, err := pickOutput(outputs)
	if err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(config.ModelPath, inputNames, []string{outputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("creating inference session: %w", err)
	}

	return &onnxSession{
		session:     session,
		inputNames:  inputNames,
		outputName:  outputName,
		tokenOutput: tokenOutput,
	}, nil
}

// pickOutput prefers the graph's pooled output over per-token rows.
func pickOutput(outputs []ort.InputOutputInfo) (string, bool, error) {
	for _, info := range outputs {
		if info.Name == sentenceOutputName {
			return info.Name, false, nil
		}
	}
	for _, info := range outputs {
		if info.Name == tokenOutputName {
			return info.Name, true, nil
		}
	}
	if len(outputs) == 0 {
		return "", false, fmt.Errorf("model declares no outputs")
	}
	// Fall back to the first declared output and let shape decide.
	return outputs[0].Name, true, nil
}

func (s *onnxSession) Run(inputIDs, attentionMask []int64) (*ModelOutput, error) {
	seqLen := int64(len(inputIDs))

	idTensor, err := ort.NewTensor(ort.NewShape(1, seqLen), inputIDs)
	if err != nil {
		return nil, fmt.Errorf("creating input tensor: %w", err)
	}
	defer idTensor.Destroy()

	maskTensor, err := ort.NewTensor(ort.NewShape(1, seqLen), attentionMask)
	if err != nil {
		return nil, fmt.Errorf("creating mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	inputs := make([]ort.Value, 0, len(s.inputNames))
	for _, name := range s.inputNames {
		switch name {
		case inputIDsName:
			inputs = append(inputs, idTensor)
		case attentionMaskName:
			inputs = append(inputs, maskTensor)
		case tokenTypeIDsName:
			typeTensor, err := ort.NewTensor(ort.NewShape(1, seqLen), make([]int64, len(inputIDs)))
			if err != nil {
				return nil, fmt.Errorf("creating token type tensor: %w", err)
			}
			defer typeTensor.Destroy()
			inputs = append(inputs, typeTensor)
		}
	}

	outputs := make([]ort.Value, 1)
	if err := s.session.Run(inputs, outputs); err != nil {
		return nil, fmt.Errorf("running inference: %w", err)
	}
	defer outputs[0].Destroy()

	tensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("model output %s is not float32", s.outputName)
	}

	data := tensor.GetData()
	vector := make([]float32, len(data))
	copy(vector, data)

	shape := tensor.GetShape()
	if s.tokenOutput || len(shape) == 3 {
		dim := int(shape[len(shape)-1])
		return &ModelOutput{TokenEmbeddings: vector, TokenDim: dim}, nil
	}
	return &ModelOutput{SentenceEmbedding: vector}, nil
}

func (s *onnxSession) Close() error {
	return s.session.Destroy()
}
