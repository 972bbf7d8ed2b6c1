package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"eventbooking/internal/access"
	"eventbooking/internal/domain"
)

const maxTaxonomyNameLength = 100

type taxonomyService struct {
	categoryRepo   domain.CategoryRepository
	tagRepo        domain.TagRepository
	contextTimeout time.Duration
}

func NewTaxonomyService(categoryRepo domain.CategoryRepository, tagRepo domain.TagRepository, timeout time.Duration) domain.TaxonomyService {
	return &taxonomyService{categoryRepo: categoryRepo, tagRepo: tagRepo, contextTimeout: timeout}
}

func (s *taxonomyService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	cats, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (s *taxonomyService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	c, err := s.categoryRepo.GetByID(ctx, id)
	return c, wrapStore("get category", err)
}

func (s *taxonomyService) CreateCategory(ctx context.Context, actor *domain.User, name, description string) (*domain.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := access.Authorize(access.Resolve(actor), access.ManageTaxonomy); err != nil {
		return nil, err
	}
	name, err := taxonomyName(name)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	c := &domain.Category{Name: name, Description: sanitize(description), CreatedAt: now, UpdatedAt: now}
	if err := s.categoryRepo.Create(ctx, c); err != nil {
		return nil, wrapStore("create category", err)
	}
	return c, nil
}

func (s *taxonomyService) UpdateCategory(ctx context.Context, actor *domain.User, id string, name, description *string) (*domain.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	c, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapStore("get category", err)
	}
	if err := access.Authorize(access.Resolve(actor), access.ManageTaxonomy); err != nil {
		return nil, err
	}
	if name != nil {
		if c.Name, err = taxonomyName(*name); err != nil {
			return nil, err
		}
	}
	if description != nil {
		c.Description = sanitize(*description)
	}
	c.UpdatedAt = time.Now()
	if err := s.categoryRepo.Update(ctx, c); err != nil {
		return nil, wrapStore("update category", err)
	}
	return c, nil
}

func (s *taxonomyService) DeleteCategory(ctx context.Context, actor *domain.User, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := access.Authorize(access.Resolve(actor), access.ManageTaxonomy); err != nil {
		return err
	}
	return wrapStore("delete category", s.categoryRepo.Delete(ctx, id))
}

func (s *taxonomyService) CategoryUsage(ctx context.Context, actor *domain.User) ([]domain.UsageCount, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := access.Authorize(access.Resolve(actor), access.ViewAdminDashboard); err != nil {
		return nil, err
	}
	usage, err := s.categoryRepo.UsageStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("category usage: %w", err)
	}
	return usage, nil
}

func (s *taxonomyService) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	tags, err := s.tagRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (s *taxonomyService) GetTag(ctx context.Context, id string) (*domain.Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	t, err := s.tagRepo.GetByID(ctx, id)
	return t, wrapStore("get tag", err)
}

func (s *taxonomyService) CreateTag(ctx context.Context, actor *domain.User, name string) (*domain.Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := access.Authorize(access.Resolve(actor), access.ManageTaxonomy); err != nil {
		return nil, err
	}
	name, err := taxonomyName(name)
	if err != nil {
		return nil, err
	}
	t := &domain.Tag{Name: name, CreatedAt: time.Now()}
	if err := s.tagRepo.Create(ctx, t); err != nil {
		return nil, wrapStore("create tag", err)
	}
	return t, nil
}

func (s *taxonomyService) UpdateTag(ctx context.Context, actor *domain.User, id, name string) (*domain.Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	t, err := s.tagRepo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapStore("get tag", err)
	}
	if err := access.Authorize(access.Resolve(actor), access.ManageTaxonomy); err != nil {
		return nil, err
	}
	if t.Name, err = taxonomyName(name); err != nil {
		return nil, err
	}
	if err := s.tagRepo.Update(ctx, t); err != nil {
		return nil, wrapStore("update tag", err)
	}
	return t, nil
}

func (s *taxonomyService) DeleteTag(ctx context.Context, actor *domain.User, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := access.Authorize(access.Resolve(actor), access.ManageTaxonomy); err != nil {
		return err
	}
	return wrapStore("delete tag", s.tagRepo.Delete(ctx, id))
}

func (s *taxonomyService) TagUsage(ctx context.Context, actor *domain.User) ([]domain.UsageCount, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := access.Authorize(access.Resolve(actor), access.ViewAdminDashboard); err != nil {
		return nil, err
	}
	usage, err := s.tagRepo.UsageStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("tag usage: %w", err)
	}
	return usage, nil
}

func taxonomyName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", domain.Invalid("name is required")
	case utf8.RuneCountInString(name) > maxTaxonomyNameLength:
		return "", domain.Invalid(fmt.Sprintf("name must be at most %d characters", maxTaxonomyNameLength))
	}
	return name, nil
}
