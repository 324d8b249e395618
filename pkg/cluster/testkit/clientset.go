package testkit

import (
	"errors"
	"sync"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
)

var ErrInjected = errors.New("injected failure")

// Clientset is a fake kubernetes client which hands out a fixed cluster ip to new services.
type Clientset struct {
	*fake.Clientset

	mu       sync.Mutex
	failures map[string]bool
}

func NewClientset(clusterIP string, objects ...runtime.Object) *Clientset {
	cs := &Clientset{
		Clientset: fake.NewSimpleClientset(objects...),
		failures:  make(map[string]bool),
	}

	cs.PrependReactor("create", "*", func(action k8stesting.Action) (bool, runtime.Object, error) {
		cs.mu.Lock()
		fail := cs.failures[action.GetResource().Resource]
		cs.mu.Unlock()

		if fail {
			return true, nil, ErrInjected
		}

		return false, nil, nil
	})

	cs.PrependReactor("create", "services", func(action k8stesting.Action) (bool, runtime.Object, error) {
		create, ok := action.(k8stesting.CreateAction)
		if !ok {
			return false, nil, nil
		}

		if svc, ok := create.GetObject().(*corev1.Service); ok && svc.Spec.ClusterIP == "" {
			svc.Spec.ClusterIP = clusterIP
		}

		return false, nil, nil
	})

	return cs
}

// FailCreate makes every create of the given resource (i.e "deployments") fail.
func (c *Clientset) FailCreate(resource string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failures[resource] = true
}

func (c *Clientset) CountActions(verb, resource string) int {
	n := 0
	for _, a := range c.Actions() {
		if a.GetVerb() == verb && a.GetResource().Resource == resource {
			n++
		}
	}

	return n
}
