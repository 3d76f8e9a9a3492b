package controllers

import (
	"net/http"
	"strings"

	"kioskcms/models"
	"kioskcms/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BubbleController struct {
	tree *services.BubbleTree
}

func NewBubbleController(tree *services.BubbleTree) *BubbleController {
	return &BubbleController{tree: tree}
}

type bubbleRequest struct {
	Title          *string           `json:"title"`
	ParentBubbleID models.NullableID `json:"parentBubbleId"`
	MediaID        models.NullableID `json:"mediaId"`
}

// ListBubbles returns all bubbles, or only the children of ?parentBubbleId.
// The value "null" selects root bubbles.
func (bc *BubbleController) ListBubbles(c *gin.Context) {
	var parent models.NullableID
	if raw, ok := c.GetQuery("parentBubbleId"); ok {
		raw = strings.TrimSpace(raw)
		switch raw {
		case "", "null":
			parent = models.ClearID()
		default:
			id, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				respondMessage(c, http.StatusBadRequest, "Invalid parent bubble ID")
				return
			}
			parent = models.SetID(id)
		}
	}

	bubbles, err := bc.tree.List(c.Request.Context(), parent)
	if err != nil {
		respondError(c, err)
		return
	}
	if bubbles == nil {
		bubbles = []models.BubbleView{}
	}
	respond(c, http.StatusOK, bubbles)
}

func (bc *BubbleController) GetBubble(c *gin.Context) {
	id, ok := objectIDParam(c, "id", "bubble")
	if !ok {
		return
	}
	bubble, err := bc.tree.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, bubble)
}

func (bc *BubbleController) CreateBubble(c *gin.Context) {
	var req bubbleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	in := services.CreateBubbleInput{ParentBubbleID: req.ParentBubbleID, MediaID: req.MediaID}
	if req.Title != nil {
		in.Title = *req.Title
	}

	bubble, err := bc.tree.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, bubble)
}

func (bc *BubbleController) UpdateBubble(c *gin.Context) {
	id, ok := objectIDParam(c, "id", "bubble")
	if !ok {
		return
	}
	var req bubbleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	bubble, err := bc.tree.Update(c.Request.Context(), id, services.UpdateBubbleInput{
		Title:          req.Title,
		ParentBubbleID: req.ParentBubbleID,
		MediaID:        req.MediaID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, bubble)
}

// DeleteBubble removes the bubble and all of its descendants.
func (bc *BubbleController) DeleteBubble(c *gin.Context) {
	id, ok := objectIDParam(c, "id", "bubble")
	if !ok {
		return
	}
	result, err := bc.tree.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, result)
}
