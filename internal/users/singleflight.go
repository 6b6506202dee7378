package users

import "context"

const rosterKey = "students"

// loadRoster shares one in-flight roster query between concurrent callers.
// A caller whose context ends stops waiting without cancelling the others.
func (s *Service) loadRoster(ctx context.Context) ([]Student, error) {
	resultChan := s.roster.DoChan(rosterKey, func() (interface{}, error) {
		return s.repo.ListStudents(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Student), nil
	}
}
