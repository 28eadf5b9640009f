package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/f-str/radishmq/internal/broker"
)

func (a *API) listTaskTopics(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, a.broker.ListTaskTopics())
}

func (a *API) createTaskTopic(w http.ResponseWriter, r *http.Request) {
	var req createTopicRequest
	if !a.decode(w, r, &req) {
		return
	}
	model, err := a.broker.CreateTaskTopic(req.Name)
	if errors.Is(err, broker.ErrTopicAlreadyExists) {
		w.WriteHeader(http.StatusConflict)
		return
	}
	a.writeJSON(w, http.StatusCreated, model)
}

func (a *API) getTaskTopic(w http.ResponseWriter, r *http.Request) {
	model, err := a.broker.LookupTaskTopic(chi.URLParam(r, "topic"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	a.writeJSON(w, http.StatusOK, model)
}

func (a *API) deleteTaskTopic(w http.ResponseWriter, r *http.Request) {
	if err := a.broker.DeleteTaskTopic(chi.URLParam(r, "topic")); err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) addTaskPublisher(w http.ResponseWriter, r *http.Request) {
	var req publisherRequest
	if !a.decode(w, r, &req) {
		return
	}
	_ = a.broker.AddPublisherToTaskTopic(chi.URLParam(r, "topic"), req.Publisher)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) removeTaskPublisher(w http.ResponseWriter, r *http.Request) {
	_ = a.broker.RemovePublisherFromTaskTopic(chi.URLParam(r, "topic"), chi.URLParam(r, "identifier"))
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) publishTask(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if !a.decode(w, r, &req) {
		return
	}
	_ = a.broker.PublishToTaskTopic(chi.URLParam(r, "topic"), chi.URLParam(r, "identifier"), req.Data)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) addTaskSubscriber(w http.ResponseWriter, r *http.Request) {
	var req subscriberRequest
	if !a.decode(w, r, &req) {
		return
	}
	_ = a.broker.AddSubscriberToTaskTopic(chi.URLParam(r, "topic"), req.Subscriber)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) removeTaskSubscriber(w http.ResponseWriter, r *http.Request) {
	_ = a.broker.RemoveSubscriberFromTaskTopic(chi.URLParam(r, "topic"), chi.URLParam(r, "identifier"))
	w.WriteHeader(http.StatusNoContent)
}

// isThereATask is a pure polling endpoint: missing topics and unregistered
// subscribers simply report no tasks.
func (a *API) isThereATask(w http.ResponseWriter, r *http.Request) {
	hasTask := a.broker.HasTaskForSubscriber(chi.URLParam(r, "topic"), chi.URLParam(r, "identifier"))
	a.writeJSON(w, http.StatusOK, newTasksResponse{NewTasks: hasTask})
}

// getNewTask answers the raw task body, or null when no task is available or
// the caller may not fetch.
func (a *API) getNewTask(w http.ResponseWriter, r *http.Request) {
	task, err := a.broker.NextTaskForSubscriber(chi.URLParam(r, "topic"), chi.URLParam(r, "identifier"))
	if err != nil || task == nil {
		a.writeJSON(w, http.StatusOK, nil)
		return
	}
	a.writeJSON(w, http.StatusOK, task)
}
