package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/dotcommander/agenthost/internal/errs"
)

func handleError(err error) {
	var merr errs.Error
	if errors.As(err, &merr) && merr.Reason != "" {
		fmt.Fprintln(os.Stderr, merr.Reason)
		if merr.Err != nil {
			fmt.Fprintln(os.Stderr, merr.Err.Error())
		}
		return
	}
	fmt.Fprintln(os.Stderr, err.Error())
}
