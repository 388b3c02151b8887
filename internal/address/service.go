package address

import (
	"errors"

	"github.com/Arafat-alim/shoporbit-backend/internal/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(userID int) ([]Address, error) {
	return s.repo.ListByUser(userID)
}

func (s *Service) Get(userID, addressID int) (Address, error) {
	a, err := s.repo.GetByID(userID, addressID)
	if err != nil {
		return Address{}, s.mapErr(err)
	}
	return a, nil
}

func (s *Service) Create(addr Address) (Address, error) {
	if addr.IsDefault {
		if err := s.repo.ClearDefault(addr.UserID); err != nil {
			return Address{}, err
		}
	}
	return s.repo.Create(addr)
}

func (s *Service) Update(addr Address) (Address, error) {
	if addr.IsDefault {
		if err := s.repo.ClearDefault(addr.UserID); err != nil {
			return Address{}, err
		}
	}
	updated, err := s.repo.Update(addr)
	if err != nil {
		return Address{}, s.mapErr(err)
	}
	return updated, nil
}

func (s *Service) Delete(userID, addressID int) error {
	if err := s.repo.Delete(userID, addressID); err != nil {
		return s.mapErr(err)
	}
	return nil
}

func (s *Service) mapErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("address not found")
	}
	return err
}
