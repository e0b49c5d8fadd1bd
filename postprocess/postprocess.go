// Package postprocess transforms rendered template output before it is
// written.
//
// The template service hands every rendered file to a Chain together with its
// destination path, so processors can decide per file type whether to act:
//
//	eng := engine.New(ctx,
//		engine.WithPostProcessor(processors.NewGoImports()),
//		engine.WithPostProcessor(postprocess.ForExtensions(processors.NewLineEndings(), ".c", ".h")),
//	)
//
// Copied files are never post-processed.
package postprocess

import (
	"fmt"
	"path"
	"strings"
)

// Processor transforms the content generated for filePath. Processors that
// do not apply to a file type return the content unchanged.
type Processor interface {
	ProcessContent(filePath string, content []byte) ([]byte, error)
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(filePath string, content []byte) ([]byte, error)

func (f ProcessorFunc) ProcessContent(filePath string, content []byte) ([]byte, error) {
	return f(filePath, content)
}

// Chain applies processors in the order they were added.
type Chain struct {
	processors []Processor
}

func NewChain(processors ...Processor) *Chain {
	return &Chain{
		processors: append(make([]Processor, 0, len(processors)), processors...),
	}
}

func (c *Chain) Add(processor Processor) {
	c.processors = append(c.processors, processor)
}

// Process runs every processor on content. The first failure stops the chain.
func (c *Chain) Process(filePath string, content []byte) ([]byte, error) {
	result := content
	for i, processor := range c.processors {
		processed, err := processor.ProcessContent(filePath, result)
		if err != nil {
			return nil, fmt.Errorf("processor %d failed for %s: %w", i, filePath, err)
		}
		result = processed
	}
	return result, nil
}

func (c *Chain) HasProcessors() bool {
	return len(c.processors) > 0
}

// ForExtensions restricts processor to destinations whose extension is one of
// exts, compared case-insensitively.
func ForExtensions(processor Processor, exts ...string) Processor {
	allowed := make(map[string]bool, len(exts))
	for _, ext := range exts {
		allowed[strings.ToLower(ext)] = true
	}

	return ProcessorFunc(func(filePath string, content []byte) ([]byte, error) {
		if !allowed[strings.ToLower(path.Ext(filePath))] {
			return content, nil
		}
		return processor.ProcessContent(filePath, content)
	})
}
