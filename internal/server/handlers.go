package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"fjacquet/statement-insights/internal/logging"
	"fjacquet/statement-insights/internal/models"
	"fjacquet/statement-insights/internal/parsererror"
	"fjacquet/statement-insights/internal/processor"
	"fjacquet/statement-insights/internal/uploadstore"

	"github.com/gin-gonic/gin"
)

type transactionsBody struct {
	Transactions []models.Transaction `json:"transactions"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// readUpload reads the "file" form field, enforcing the size ceiling before
// and while reading.
func (s *Server) readUpload(c *gin.Context) (processor.Upload, bool) {
	if s.deps.MaxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.deps.MaxBytes+multipartOverhead)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			respondError(c, err)
			return processor.Upload{}, false
		}
		badRequest(c, "no file provided")
		return processor.Upload{}, false
	}
	if s.deps.MaxBytes > 0 && header.Size > s.deps.MaxBytes {
		respondError(c, &parsererror.FileTooLargeError{Size: header.Size, Limit: s.deps.MaxBytes})
		return processor.Upload{}, false
	}

	data, err := readFormFile(header)
	if err != nil {
		respondError(c, err)
		return processor.Upload{}, false
	}
	return processor.Upload{
		Data:     data,
		MIMEType: header.Header.Get("Content-Type"),
		Filename: header.Filename,
	}, true
}

func readFormFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	return data, nil
}

// upload parses the file in the request and returns its transactions.
func (s *Server) upload(c *gin.Context) {
	u, ok := s.readUpload(c)
	if !ok {
		return
	}
	txs, err := s.deps.Processor.Process(c.Request.Context(), u)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactionsBody{Transactions: txs})
}

// storeUpload saves the file for a later /api/file/process call.
func (s *Server) storeUpload(c *gin.Context) {
	u, ok := s.readUpload(c)
	if !ok {
		return
	}
	id, err := s.deps.Uploads.Save(u.Filename, u.MIMEType, u.Data)
	if err != nil {
		respondError(c, err)
		return
	}
	s.deps.Logger.Debug("Stored upload",
		logging.F(logging.FieldFileID, id),
		logging.F(logging.FieldSize, len(u.Data)))
	c.JSON(http.StatusOK, gin.H{"file_id": id})
}

// processStored parses a stored upload. The stored files are removed whatever
// the outcome.
func (s *Server) processStored(c *gin.Context) {
	id := c.Query("file_id")
	if id == "" {
		badRequest(c, "no file_id provided")
		return
	}

	var txs []models.Transaction
	err := s.deps.Uploads.WithUpload(id, func(up *uploadstore.Upload) error {
		var perr error
		txs, perr = s.deps.Processor.Process(c.Request.Context(), processor.Upload{
			Data:     up.Data,
			MIMEType: up.Metadata.MIMEType,
			Filename: up.Metadata.OriginalName,
		})
		return perr
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactionsBody{Transactions: txs})
}

func (s *Server) bindTransactions(c *gin.Context) ([]models.Transaction, bool) {
	var body transactionsBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Transactions == nil {
		badRequest(c, "invalid transactions data")
		return nil, false
	}
	return body.Transactions, true
}

// analyze returns the deterministic analysis of the posted transactions.
func (s *Server) analyze(c *gin.Context) {
	txs, ok := s.bindTransactions(c)
	if !ok {
		return
	}
	result, err := s.deps.Analyzer.Analyze(txs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// recommend asks the recommendation service about the posted transactions.
func (s *Server) recommend(c *gin.Context) {
	txs, ok := s.bindTransactions(c)
	if !ok {
		return
	}
	if s.deps.Recommender == nil {
		respondError(c, &parsererror.ConfigurationError{Component: "recommender", Msg: "not available"})
		return
	}
	rec, err := s.deps.Recommender()
	if err != nil {
		respondError(c, err)
		return
	}
	result, err := rec.Recommend(c.Request.Context(), txs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
