package service

import "errors"

var (
	ErrBracketExists = errors.New("a playoff bracket already exists for this division")
	ErrInvalidInput  = errors.New("invalid input")
)
