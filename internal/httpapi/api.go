package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/GoCodeAlone/modular"
	"github.com/go-chi/chi/v5"

	"github.com/f-str/radishmq/internal/broker"
)

// API holds the HTTP handlers for the broker surface.
type API struct {
	broker *broker.Broker
	logger modular.Logger
}

// NewAPI creates the handler set over engine.
func NewAPI(engine *broker.Broker, logger modular.Logger) *API {
	return &API{broker: engine, logger: logger}
}

// Routes mounts the broker surface on r.
func (a *API) Routes(r chi.Router) {
	r.Route("/message_topics", func(r chi.Router) {
		r.Get("/", a.listMessageTopics)
		r.Post("/", a.createMessageTopic)
		r.Route("/{topic}", func(r chi.Router) {
			r.Get("/", a.getMessageTopic)
			r.Delete("/", a.deleteMessageTopic)
			r.Post("/publisher", a.addMessagePublisher)
			r.Delete("/publisher/{identifier}", a.removeMessagePublisher)
			r.Post("/publisher/{identifier}/publish", a.publishMessage)
			r.Post("/subscribers", a.addMessageSubscriber)
			r.Delete("/subscribers/{identifier}", a.removeMessageSubscriber)
			r.Get("/subscribers/{identifier}/is_new_data", a.isNewData)
			r.Get("/subscribers/{identifier}/get_data", a.getData)
		})
	})

	r.Route("/task_topics", func(r chi.Router) {
		r.Get("/", a.listTaskTopics)
		r.Post("/", a.createTaskTopic)
		r.Route("/{topic}", func(r chi.Router) {
			r.Get("/", a.getTaskTopic)
			r.Delete("/", a.deleteTaskTopic)
			r.Post("/publisher", a.addTaskPublisher)
			r.Delete("/publisher/{identifier}", a.removeTaskPublisher)
			r.Post("/publisher/{identifier}/publish", a.publishTask)
			r.Post("/subscribers", a.addTaskSubscriber)
			r.Delete("/subscribers/{identifier}", a.removeTaskSubscriber)
			r.Get("/subscribers/{identifier}/is_there_a_task", a.isThereATask)
			r.Get("/subscribers/{identifier}/get_new_task", a.getNewTask)
		})
	})
}

// Request and response bodies.

type createTopicRequest struct {
	Name string `json:"name"`
}

type publisherRequest struct {
	Publisher string `json:"publisher"`
}

type subscriberRequest struct {
	Subscriber string `json:"subscriber"`
}

type publishRequest struct {
	Data json.RawMessage `json:"data"`
}

type newDataResponse struct {
	NewData bool `json:"new_data"`
}

type newTasksResponse struct {
	NewTasks bool `json:"new_tasks"`
}

type dataResponse struct {
	Data []broker.Payload `json:"data"`
}

func (a *API) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.logger.Error("failed to encode response body", "error", err)
	}
}

// decode parses the request body, answering 400 itself on malformed JSON.
func (a *API) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		a.logger.Warn("malformed request body", "path", r.URL.Path, "error", err)
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}
