package api

import (
	"newslens/app/query"
	"newslens/app/tasks"
)

type Handler struct {
	svc        *query.Service
	scheduler  tasks.TaskSchedulerInterface
	topSources int
	version    string
}

func NewHandler(svc *query.Service, scheduler tasks.TaskSchedulerInterface, topSources int, version string) *Handler {
	return &Handler{
		svc:        svc,
		scheduler:  scheduler,
		topSources: topSources,
		version:    version,
	}
}
