package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"kitchenviz/payment"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Initiate(ctx context.Context, req payment.InitiateRequest) (*payment.InitiateResult, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*payment.InitiateResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGateway) GetStatus(ctx context.Context, merchantOrderID string) (*payment.StatusResult, error) {
	args := m.Called(ctx, merchantOrderID)
	if r := args.Get(0); r != nil {
		return r.(*payment.StatusResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendOrderStatus(to, name, orderID, status string) error {
	args := m.Called(to, name, orderID, status)
	return args.Error(0)
}

func (m *MockMailer) SendPaymentConfirmation(to, name, orderID string, amount float64) error {
	args := m.Called(to, name, orderID, amount)
	return args.Error(0)
}
