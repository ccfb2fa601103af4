package server

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cherrymixy/signum/internal/assets"
	"github.com/cherrymixy/signum/internal/canvas"
	"github.com/cherrymixy/signum/internal/config"
	"github.com/cherrymixy/signum/internal/core"
	"github.com/cherrymixy/signum/internal/llm"
	"github.com/cherrymixy/signum/internal/persist"
)

type Server struct {
	cfg      *config.Config
	store    *canvas.Store
	gate     *persist.Gate
	registry *assets.DirRegistry
	orch     *core.Orchestrator
	log      *zap.Logger
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Server, error) {
	kv, err := persist.NewFileStore(cfg.Canvas.StateDir)
	if err != nil {
		return nil, err
	}
	gate := persist.NewGate(cfg.Canvas.Persist, kv, log)

	store := canvas.NewStore(gate, log)
	if snap, ok := gate.Load(); ok {
		store.Restore(snap)
		log.Info("restored canvas state",
			zap.Int("nodes", len(snap.Nodes)),
			zap.Int("edges", len(snap.Edges)))
	}

	registry, err := assets.NewDirRegistry(cfg.Server.UploadDir)
	if err != nil {
		return nil, err
	}

	vision, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vision client: %w", err)
	}

	orch := core.NewOrchestrator(store, registry, vision, cfg.Prompts, log)

	return &Server{
		cfg:      cfg,
		store:    store,
		gate:     gate,
		registry: registry,
		orch:     orch,
		log:      log,
	}, nil
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	api := r.Group("/api")
	api.POST("/upload", s.uploadImage)
	api.GET("/images/:id", s.serveImage)
	api.POST("/analysis/analyze", s.analyzeImage)

	cv := api.Group("/canvas")
	cv.GET("", s.getCanvas)
	cv.DELETE("", s.clearCanvas)
	cv.POST("/nodes", s.addNode)
	cv.PUT("/nodes", s.replaceNodes)
	cv.GET("/nodes/:id", s.getNode)
	cv.PATCH("/nodes/:id", s.patchNode)
	cv.POST("/nodes/:id/run", s.runNode)
	cv.POST("/edges", s.addEdge)
	cv.PUT("/edges", s.replaceEdges)

	return r
}
