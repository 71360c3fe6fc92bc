package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// recompute refreshes the final grades of a subject, or of a single student in it.
func (cli *commandLine) recompute(subjectName, studentCode string) error {
	ctx := context.Background()

	sub, err := cli.svc.GetSubjectByName(ctx, subjectName)
	if err != nil {
		return errors.Wrap(err, "finding subject by name")
	}

	if studentCode == "" {
		n, err := cli.svc.RecomputeSubject(ctx, sub.ID)
		if err != nil {
			return errors.Wrap(err, "recomputing subject")
		}
		fmt.Fprintf(cli.out, "%s: %d final grade(s) recomputed\n", sub.Name, n)
		return nil
	}

	std, err := cli.svc.GetStudentByCode(ctx, studentCode)
	if err != nil {
		return errors.Wrap(err, "finding student by code")
	}
	fg, err := cli.svc.RecomputeFinalGrade(ctx, std.ID, sub.ID)
	if err != nil {
		return errors.Wrap(err, "recomputing final grade")
	}
	fmt.Fprintf(cli.out, "%s %s: %s\n", std.Code, sub.Name, fg.Value.StringFixed(2))
	return nil
}
