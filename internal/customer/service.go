package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type Service interface {
	CreateCustomer(ctx context.Context, c *Customer) (*Customer, error)
	GetCustomerByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	UpdateCustomer(ctx context.Context, c *Customer) error
	ListCustomers(ctx context.Context, limit, offset int) ([]Customer, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateCustomer(ctx context.Context, c *Customer) (*Customer, error) {
	if c.Name == "" {
		return nil, errors.New("service: customer name is required")
	}
	if c.Email == "" {
		return nil, errors.New("service: customer email is required")
	}

	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		log.Error().Err(err).Msg("service: failed to create customer in repository")
		return nil, fmt.Errorf("service: failed to create customer: %w", err)
	}

	log.Info().Stringer("customer_id", c.ID).Msg("service: customer created")
	return c, nil
}

func (s *service) GetCustomerByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Stringer("customer_id", id).Msg("service: failed to fetch customer by id")
		return nil, fmt.Errorf("service: failed to fetch customer by id: %w", err)
	}

	return c, nil
}

func (s *service) UpdateCustomer(ctx context.Context, c *Customer) error {
	err := s.repo.Update(ctx, c)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrEmailExists) {
			return err
		}
		log.Error().Err(err).Stringer("customer_id", c.ID).Msg("service: failed to update customer")
		return fmt.Errorf("service: failed to update customer: %w", err)
	}

	return nil
}

func (s *service) ListCustomers(ctx context.Context, limit, offset int) ([]Customer, error) {
	customers, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list customers")
		return nil, fmt.Errorf("service: failed to list customers: %w", err)
	}

	return customers, nil
}
