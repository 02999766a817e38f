package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/circulation/internal/entities"
	"github.com/mrlokans/circulation/internal/importers"
)

// maxImportSize caps uploaded CSV files.
const maxImportSize = 32 << 20

type TransferController struct {
	importer Importer
	exporter Exporter
}

func NewTransferController(importer Importer, exporter Exporter) *TransferController {
	return &TransferController{importer: importer, exporter: exporter}
}

// Import loads a CSV file into a table. The file is read from the "file"
// multipart field, or from the raw body for text/csv requests.
// POST /api/import/:table
func (tc *TransferController) Import(c *gin.Context) {
	table, err := importers.ParseTable(c.Param("table"))
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	body, closeBody, err := importBody(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	defer closeBody()

	result, err := tc.importer.Import(c.Request.Context(), table, io.LimitReader(body, maxImportSize))
	if err != nil {
		if errors.Is(err, entities.ErrStorageFailure) {
			respondInternalError(c, err, "import "+string(table))
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   err.Error(),
			Code:    CodeInvalidRequestInput,
			Details: result,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

func importBody(c *gin.Context) (io.Reader, func(), error) {
	if c.ContentType() == "multipart/form-data" {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return nil, nil, fmt.Errorf("file is required: %w", err)
		}
		file, err := fileHeader.Open()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open uploaded file: %w", err)
		}
		return file, func() { file.Close() }, nil
	}

	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil, nil, errors.New("request body is empty")
	}
	return c.Request.Body, func() {}, nil
}

// Export downloads a table as CSV with a header row.
// GET /api/export/:table
func (tc *TransferController) Export(c *gin.Context) {
	table, err := importers.ParseTable(c.Param("table"))
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	var buf bytes.Buffer
	result, err := tc.exporter.Export(c.Request.Context(), table, &buf)
	if err != nil {
		respondInternalError(c, err, "export "+string(table))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, table))
	c.Header("X-Correlation-ID", result.CorrelationID)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
