package queue

import (
	"github.com/maheshrc27/postflow/internal/service"
)

type Queue struct {
	ps service.PublishService
}

func NewQueue(ps service.PublishService) *Queue {
	return &Queue{ps: ps}
}

const TaskTypePublishPost = "post:publish"

type PublishPostPayload struct {
	PostID        string `json:"post_id"`
	ScheduledUnix int64  `json:"scheduled_unix"`
}
