package handler

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tomaz/labelscan/internal/domain"
	"github.com/tomaz/labelscan/internal/imaging"
	"github.com/tomaz/labelscan/internal/service"
)

// allowedExtensions lists the upload formats the preparer can decode.
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// LabelHandler handles price-label scan endpoints.
type LabelHandler struct {
	scanService *service.ScanService
}

// NewLabelHandler creates a new label handler.
func NewLabelHandler(scanService *service.ScanService) *LabelHandler {
	return &LabelHandler{
		scanService: scanService,
	}
}

// ScanLabel handles POST /api/v1/labels/scan.
//
// Multipart fields: image (required file), shop_name, latitude, longitude,
// date_time, hint_text, debug — all optional strings, coerced best-effort.
// Image decode failures are 400, encode failures 500, model call failures
// 502; once the model has replied the response is always 200 with a
// LabelRecord.
func (h *LabelHandler) ScanLabel(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No image file provided",
		})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid file type, allowed types are: png, jpg, jpeg, gif, webp",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to open uploaded file",
		})
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read uploaded file",
		})
		return
	}

	hints := parseHints(c)
	debug, _ := strconv.ParseBool(c.PostForm("debug"))

	record, err := h.scanService.Scan(c.Request.Context(), imageData, hints, debug)
	if err != nil {
		switch {
		case errors.Is(err, imaging.ErrDecode):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Could not decode the image",
			})
		case errors.Is(err, imaging.ErrEncode):
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Error processing the image",
			})
		default:
			c.JSON(http.StatusBadGateway, gin.H{
				"error": "Failed to get a response from the AI",
			})
		}
		return
	}

	c.JSON(http.StatusOK, record)
}

// parseHints reads the optional context fields from the multipart form.
// Each field is independently optional; malformed numbers are dropped, the
// way the original form parsing treated them.
func parseHints(c *gin.Context) *domain.Hints {
	hints := &domain.Hints{
		ShopName: c.PostForm("shop_name"),
		DateTime: c.PostForm("date_time"),
		HintText: c.PostForm("hint_text"),
	}

	if v := c.PostForm("latitude"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			hints.Latitude = &lat
		}
	}
	if v := c.PostForm("longitude"); v != "" {
		if lon, err := strconv.ParseFloat(v, 64); err == nil {
			hints.Longitude = &lon
		}
	}

	return hints
}
