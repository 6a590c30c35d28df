package ui

import "webmfit/internal/progress"

type jobUpdateMsg struct {
	U progress.Update
}

type jobLogMsg struct {
	L progress.Log
}

type jobResultMsg struct {
	R progress.Result
}

// jobDoneMsg carries the return value of the job function.
type jobDoneMsg struct {
	Err error
}
