package v1

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"shiftreport.com/shiftreport/web/handlers/dailyreport"
)

type ReportEndpoint struct {
	transport *Transport
}

func (e *ReportEndpoint) List(ctx context.Context, from, to string) ([]dailyreport.ReportDTO, error) {
	resp, err := e.transport.Get(ctx, "/dailyreport/", map[string]string{"from": from, "to": to})
	if err != nil {
		return nil, err
	}
	out, err := decode[[]dailyreport.ReportDTO](resp)
	if err != nil {
		return nil, err
	}
	return *out, nil
}

func (e *ReportEndpoint) Get(ctx context.Context, date string) (*dailyreport.ReportDTO, error) {
	resp, err := e.transport.Get(ctx, fmt.Sprintf("/dailyreport/%s/", date), nil)
	if err != nil {
		return nil, err
	}
	return decode[dailyreport.ReportDTO](resp)
}

// Create requires dto.Date.
func (e *ReportEndpoint) Create(ctx context.Context, dto *dailyreport.ReportRequestDTO) (*dailyreport.ReportDTO, error) {
	resp, err := e.transport.Post(ctx, "/dailyreport/", dto)
	if err != nil {
		return nil, err
	}
	return decode[dailyreport.ReportDTO](resp)
}

func (e *ReportEndpoint) Update(ctx context.Context, date string, dto *dailyreport.ReportRequestDTO) (*dailyreport.ReportDTO, error) {
	resp, err := e.transport.Do(ctx, http.MethodPatch, fmt.Sprintf("/dailyreport/%s/", date), dto, nil)
	if err != nil {
		return nil, err
	}
	return decode[dailyreport.ReportDTO](resp)
}

// Upsert reports whether the server created the report.
func (e *ReportEndpoint) Upsert(ctx context.Context, date string, dto *dailyreport.ReportRequestDTO) (*dailyreport.ReportDTO, bool, error) {
	resp, err := e.transport.Post(ctx, fmt.Sprintf("/dailyreport/upsert/%s/", date), dto)
	if err != nil {
		return nil, false, err
	}
	out, err := decode[dailyreport.ReportDTO](resp)
	if err != nil {
		return nil, false, err
	}
	return out, resp.StatusCode == http.StatusCreated, nil
}

func (e *ReportEndpoint) Delete(ctx context.Context, date string) error {
	_, err := e.transport.Do(ctx, http.MethodDelete, fmt.Sprintf("/dailyreport/delete/%s/", date), nil, nil)
	return err
}

// Export copies the xlsx workbook for the range into w.
func (e *ReportEndpoint) Export(ctx context.Context, from, to string, w io.Writer) error {
	resp, err := e.transport.Get(ctx, "/dailyreport/export/", map[string]string{"from": from, "to": to})
	if err != nil {
		return err
	}
	_, err = w.Write(resp.Data)
	return err
}
