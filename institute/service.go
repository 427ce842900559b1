// Package institute exposes the typed CRUD clients of the institute API.
// Every call goes through the request pipeline, so bearer attachment,
// refresh cycles and error translation are already handled when a result
// comes back.
package institute

import (
	"context"
	"fmt"

	"github.com/gdsc-dev/portalclient/pipeline"
)

type Service struct {
	Centres      *Resource[Centre]
	Courses      *Resource[Course]
	Exams        *Resource[Exam]
	Certificates *Resource[Certificate]
	Users        *UsersClient
}

func NewService(api *pipeline.Client) *Service {
	return &Service{
		Centres:      &Resource[Centre]{api: api, base: "/centres"},
		Courses:      &Resource[Course]{api: api, base: "/courses"},
		Exams:        &Resource[Exam]{api: api, base: "/exams"},
		Certificates: &Resource[Certificate]{api: api, base: "/certificates"},
		Users: &UsersClient{
			Resource: Resource[User]{api: api, base: "/users"},
		},
	}
}

// Resource is the shared list/get/create/update/delete surface.
type Resource[T any] struct {
	api  *pipeline.Client
	base string
}

func (r *Resource[T]) List(ctx context.Context, page, size int) ([]T, error) {
	path := r.base
	if page > 0 || size > 0 {
		path = fmt.Sprintf("%s?page=%d&size=%d", r.base, page, size)
	}
	var out []T
	if err := r.api.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resource[T]) Get(ctx context.Context, id int64) (T, error) {
	var out T
	err := r.api.Get(ctx, fmt.Sprintf("%s/%d", r.base, id), &out)
	return out, err
}

func (r *Resource[T]) Create(ctx context.Context, in T) (T, error) {
	var out T
	err := r.api.Post(ctx, r.base, in, &out)
	return out, err
}

func (r *Resource[T]) Update(ctx context.Context, id int64, in T) (T, error) {
	var out T
	err := r.api.Put(ctx, fmt.Sprintf("%s/%d", r.base, id), in, &out)
	return out, err
}

func (r *Resource[T]) Delete(ctx context.Context, id int64) error {
	return r.api.Delete(ctx, fmt.Sprintf("%s/%d", r.base, id))
}

// UsersClient adds the password operation the users resource carries on
// top of plain CRUD.
type UsersClient struct {
	Resource[User]
}

func (c *UsersClient) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	return c.api.Post(ctx, c.base+"/change-password", req, nil)
}
