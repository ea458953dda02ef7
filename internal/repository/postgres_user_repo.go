package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/chefgo/internal/model"
)

// uniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const uniqueViolation = "23505"

// selectUserSQL はユーザーと各ロールのプロフィールを結合して取得する。
// プロフィールは1ユーザーにつき各種別最大1件。
const selectUserSQL = `
	SELECT u.id, u.email, u.display_name, u.password_hash, u.role, u.status,
		COALESCE(u.avatar, ''), u.created_at, u.updated_at,
		c.id, COALESCE(c.phone, ''), COALESCE(c.default_address, ''),
		r.id, COALESCE(r.phone, ''), COALESCE(r.vehicle_plate, ''), COALESCE(r.available, false),
		s.id, COALESCE(s.name, ''), COALESCE(s.address, ''), COALESCE(s.is_open, false)
	FROM users u
	LEFT JOIN customer_profiles c ON c.user_id = u.id
	LEFT JOIN rider_profiles r ON r.user_id = u.id
	LEFT JOIN restaurant_profiles s ON s.user_id = u.id`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByEmail はメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, selectUserSQL+` WHERE u.email = $1`, email)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, selectUserSQL+` WHERE u.id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// CreateWithProfile はユーザーとプロフィールを同一トランザクションで作成する。
func (r *PostgresUserRepo) CreateWithProfile(ctx context.Context, user *model.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// ユーザーを作成
	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, display_name, password_hash, role, status, avatar, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9)`,
		user.ID, user.Email, user.DisplayName, user.PasswordHash, string(user.Role), string(user.Status),
		user.Avatar, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	// プロフィールを作成
	if err := insertProfile(ctx, tx, user); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func insertProfile(ctx context.Context, tx *sql.Tx, user *model.User) error {
	var err error
	switch p := user.Profile.(type) {
	case nil:
		return nil
	case *model.CustomerProfile:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO customer_profiles (id, user_id, phone, default_address, created_at)
			 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5)`,
			p.ID, user.ID, p.Phone, p.DefaultAddress, user.CreatedAt,
		)
	case *model.RiderProfile:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO rider_profiles (id, user_id, phone, vehicle_plate, available, created_at)
			 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6)`,
			p.ID, user.ID, p.Phone, p.VehiclePlate, p.Available, user.CreatedAt,
		)
	case *model.RestaurantProfile:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO restaurant_profiles (id, user_id, name, address, is_open, created_at)
			 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)`,
			p.ID, user.ID, p.Name, p.Address, p.IsOpen, user.CreatedAt,
		)
	default:
		return fmt.Errorf("unsupported profile type %T", p)
	}
	if err != nil {
		return fmt.Errorf("failed to insert %s profile: %w", user.Profile.Kind(), err)
	}
	return nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通部分。
type rowScanner interface {
	Scan(dest ...any) error
}

// profileColumns はLEFT JOINしたプロフィール列の読み取り先。
type profileColumns struct {
	customerID      sql.NullString
	customerPhone   string
	customerAddress string

	riderID        sql.NullString
	riderPhone     string
	riderPlate     string
	riderAvailable bool

	restaurantID      sql.NullString
	restaurantName    string
	restaurantAddress string
	restaurantOpen    bool
}

// scanUser は1行を読み取る。行がなければ(nil, nil)を返す。
func scanUser(row rowScanner) (*model.User, error) {
	var (
		user   model.User
		role   string
		status string
		pc     profileColumns
	)
	err := row.Scan(
		&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &role, &status,
		&user.Avatar, &user.CreatedAt, &user.UpdatedAt,
		&pc.customerID, &pc.customerPhone, &pc.customerAddress,
		&pc.riderID, &pc.riderPhone, &pc.riderPlate, &pc.riderAvailable,
		&pc.restaurantID, &pc.restaurantName, &pc.restaurantAddress, &pc.restaurantOpen,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if user.Role, err = model.ParseRole(role); err != nil {
		return nil, fmt.Errorf("user %s: %w", user.ID, err)
	}
	if user.Status, err = model.ParseAccountStatus(status); err != nil {
		return nil, fmt.Errorf("user %s: %w", user.ID, err)
	}
	user.Profile = pc.profileFor(user.Role)

	return &user, nil
}

// profileFor はロールに対応するプロフィールを返す。該当がなければnil。
// ADMINはプロフィールを持たない。
func (pc profileColumns) profileFor(role model.Role) model.Profile {
	switch role {
	case model.RoleCustomer:
		if pc.customerID.Valid {
			return &model.CustomerProfile{
				ID:             pc.customerID.String,
				Phone:          pc.customerPhone,
				DefaultAddress: pc.customerAddress,
			}
		}
	case model.RoleRider:
		if pc.riderID.Valid {
			return &model.RiderProfile{
				ID:           pc.riderID.String,
				Phone:        pc.riderPhone,
				VehiclePlate: pc.riderPlate,
				Available:    pc.riderAvailable,
			}
		}
	case model.RoleRestaurant:
		if pc.restaurantID.Valid {
			return &model.RestaurantProfile{
				ID:      pc.restaurantID.String,
				Name:    pc.restaurantName,
				Address: pc.restaurantAddress,
				IsOpen:  pc.restaurantOpen,
			}
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
