package core

import (
	"context"

	"github.com/cherrymixy/signum/internal/assets"
	"github.com/cherrymixy/signum/internal/llm"
)

type MockVision struct {
	Response string
	Err      error
	Calls    int
	LastImg  llm.Image
}

func (m *MockVision) Analyze(ctx context.Context, system, prompt string, img llm.Image) (string, error) {
	m.Calls++
	m.LastImg = img
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

type MockRegistry struct {
	Assets map[string]assets.Asset
	Err    error
}

func (m *MockRegistry) Resolve(id string) (assets.Asset, error) {
	if m.Err != nil {
		return assets.Asset{}, m.Err
	}
	a, ok := m.Assets[id]
	if !ok {
		return assets.Asset{}, assets.ErrNotFound
	}
	return a, nil
}
