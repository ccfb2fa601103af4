package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cherrymixy/signum/internal/analysis"
	"github.com/cherrymixy/signum/internal/assets"
	"github.com/cherrymixy/signum/internal/canvas"

	"github.com/google/uuid"
)

const maxUploadBytes = 10 << 20 // 10 MB

func sendError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

func (s *Server) uploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		sendError(c, http.StatusBadRequest, "INVALID_FILE", "No file was uploaded.")
		return
	}
	if file.Size > maxUploadBytes {
		sendError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Image must be 10MB or smaller.")
		return
	}
	// Multipart writers that don't sniff types send octet-stream; the
	// registry still rejects by extension in that case.
	ct := file.Header.Get("Content-Type")
	if ct != "" && ct != "application/octet-stream" && !assets.AllowedType(ct) {
		sendError(c, http.StatusBadRequest, "INVALID_FILE", "Only jpeg, png, gif and webp images are accepted.")
		return
	}

	f, err := file.Open()
	if err != nil {
		sendError(c, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to read the uploaded file.")
		return
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil || int64(len(content)) > maxUploadBytes {
		sendError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Image must be 10MB or smaller.")
		return
	}

	asset, err := s.registry.Store(file.Filename, content)
	if err != nil {
		s.log.Error("upload failed", zap.Error(err))
		sendError(c, http.StatusBadRequest, "UPLOAD_FAILED", "Failed to store the uploaded file.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"imageId":  asset.ID,
			"fileName": asset.FileName,
			"mimeType": asset.ContentType,
			"size":     asset.Size,
			"url":      s.registry.URL(asset.ID),
		},
	})
}

func (s *Server) serveImage(c *gin.Context) {
	asset, err := s.registry.Resolve(c.Param("id"))
	if errors.Is(err, assets.ErrNotFound) {
		sendError(c, http.StatusNotFound, "IMAGE_NOT_FOUND", "Image not found.")
		return
	}
	if err != nil {
		s.log.Error("failed to serve image", zap.String("image_id", c.Param("id")), zap.Error(err))
		sendError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Failed to read image.")
		return
	}
	c.Data(http.StatusOK, asset.ContentType, asset.Content)
}

type analyzeRequest struct {
	ImageID       string `json:"imageId" binding:"required,uuid"`
	IntentText    string `json:"intentText" binding:"required"`
	TargetPreset  string `json:"targetPreset" binding:"required"`
	ContextPreset string `json:"contextPreset" binding:"required"`
}

// analyzeImage is the stateless analysis endpoint: no canvas involved, the
// caller supplies the asset id and parameters directly.
func (s *Server) analyzeImage(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "imageId, intentText, targetPreset and contextPreset are required.")
		return
	}

	result, runErr := s.orch.Analyze(c.Request.Context(), req.ImageID, req.IntentText, req.TargetPreset, req.ContextPreset)
	if runErr != nil {
		status := http.StatusInternalServerError
		if runErr.Kind == analysis.KindUpstreamAssetUnreadable {
			status = http.StatusNotFound
		}
		sendError(c, status, string(runErr.Kind), runErr.Message)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"analysisId": uuid.NewString(),
			"result":     result,
		},
	})
}

func (s *Server) getCanvas(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Snapshot())
}

func (s *Server) clearCanvas(c *gin.Context) {
	s.gate.Clear()
	s.store.Restore(canvas.Snapshot{})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) addNode(c *gin.Context) {
	var node canvas.Node
	if err := c.ShouldBindJSON(&node); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid node payload.")
		return
	}
	if node.ID == "" {
		node.ID = uuid.NewString()
	}
	switch node.Kind {
	case canvas.KindSource:
		if node.Source == nil {
			node.Source = &canvas.SourceData{}
		}
	case canvas.KindSink:
		if node.Sink == nil {
			node.Sink = &canvas.SinkData{Status: canvas.StatusIdle}
		}
	default:
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Node kind must be source or sink.")
		return
	}

	if err := s.store.AddNode(node); err != nil {
		sendError(c, http.StatusConflict, "DUPLICATE_ID", "A node with that id already exists.")
		return
	}
	c.JSON(http.StatusOK, node)
}

func (s *Server) getNode(c *gin.Context) {
	node, ok := s.store.Node(c.Param("id"))
	if !ok {
		sendError(c, http.StatusNotFound, "NODE_NOT_FOUND", "Node not found.")
		return
	}
	c.JSON(http.StatusOK, node)
}

func (s *Server) patchNode(c *gin.Context) {
	var patch canvas.NodePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid patch payload.")
		return
	}
	// Missing ids are deliberately not an error at the store level; the
	// response still reflects whether the node exists now.
	s.store.UpdateNode(c.Param("id"), patch)
	node, ok := s.store.Node(c.Param("id"))
	if !ok {
		sendError(c, http.StatusNotFound, "NODE_NOT_FOUND", "Node not found.")
		return
	}
	c.JSON(http.StatusOK, node)
}

func (s *Server) replaceNodes(c *gin.Context) {
	var nodes []canvas.Node
	if err := c.ShouldBindJSON(&nodes); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid nodes payload.")
		return
	}
	s.store.ReplaceNodes(nodes)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) addEdge(c *gin.Context) {
	var edge canvas.Edge
	if err := c.ShouldBindJSON(&edge); err != nil || edge.Source == "" || edge.Target == "" {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Edge needs source and target node ids.")
		return
	}
	if edge.ID == "" {
		edge.ID = uuid.NewString()
	}
	s.store.AddEdge(edge)
	c.JSON(http.StatusOK, s.store.Snapshot().Edges)
}

func (s *Server) replaceEdges(c *gin.Context) {
	var edges []canvas.Edge
	if err := c.ShouldBindJSON(&edges); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid edges payload.")
		return
	}
	s.store.ReplaceEdges(edges)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) runNode(c *gin.Context) {
	node, ok := s.orch.Run(c.Request.Context(), c.Param("id"))
	if !ok {
		sendError(c, http.StatusNotFound, "NODE_NOT_FOUND", "No sink node with that id.")
		return
	}
	c.JSON(http.StatusOK, node)
}
