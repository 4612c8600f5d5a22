package model

import "github.com/m-mizutani/goerr/v2"

var (
	ErrNotFound            = goerr.New("not found")
	ErrDuplicateAnswer     = goerr.New("answer already submitted for question")
	ErrMalformedEvaluation = goerr.New("malformed evaluation response")
	ErrReportNotReady      = goerr.New("report not yet generated")
	ErrAlreadyClaimed      = goerr.New("interview status already claimed")
	ErrInvalidStatus       = goerr.New("invalid status")
)
