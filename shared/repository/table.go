package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"reflect"
	"strings"

	"todo/infras/otel"
	"todo/infras/postgres"
	"todo/shared/constant"
	"todo/shared/logger"
)

type column struct {
	name  string
	table string
	alias string
}

// Table is a generic sqlx backed store for one entity. Columns come from the db tags of T.
type Table[T any] struct {
	db            *postgres.Connection
	otel          otel.Otel
	table         string
	entitas       string
	primaryColumn string
	columns       []column
	InsertColumns []string
}

func NewTable[T any](entitasName, tableName, primaryColumn string, dbConnection *postgres.Connection, otl otel.Otel) Table[T] {
	var zero T

	columns, insertColumns := getColumns(tableName, reflect.TypeOf(zero))

	return Table[T]{
		db:            dbConnection,
		otel:          otl,
		table:         tableName,
		entitas:       entitasName,
		primaryColumn: primaryColumn,
		columns:       columns,
		InsertColumns: insertColumns,
	}
}

// Iterate streams every row ordered by the primary column. The rows stay open until the sequence is
// exhausted or the consumer stops.
func (repo *Table[T]) Iterate(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.Iterate", constant.OtelRepositoryScopeName, repo.entitas))
		defer scope.End()

		query := repo.selectAllQuery()
		scope.SetAttribute(constant.OtelQueryAttributeKey, query)

		var zero T

		rows, err := repo.db.Read.QueryxContext(ctx, query)
		if err != nil {
			logger.ErrorWithStack(err)
			scope.TraceError(err)
			yield(zero, fmt.Errorf("failed to get all data (%s): %w", repo.entitas, err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			var model T
			if err := rows.StructScan(&model); err != nil {
				scope.TraceError(err)
				yield(zero, fmt.Errorf("failed to scan data (%s): %w", repo.entitas, err))

				return
			}

			if !yield(model, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			logger.ErrorWithStack(err)
			scope.TraceError(err)
			yield(zero, fmt.Errorf("failed to iterate data (%s): %w", repo.entitas, err))
		}
	}
}

// Get returns the row with the given primary key, or the zero value when there is none.
func (repo *Table[T]) Get(ctx context.Context, id any) (T, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.Get", constant.OtelRepositoryScopeName, repo.entitas))
	defer scope.End()

	query := repo.selectByIDQuery()
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var model T

	err := repo.db.Read.GetContext(ctx, &model, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model, nil
	}

	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return model, fmt.Errorf("failed to get data (%s): %w", repo.entitas, err)
	}

	return model, nil
}

// Upsert inserts model or, when its primary key already exists, overwrites every other column.
func (repo *Table[T]) Upsert(ctx context.Context, model T) error {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.Upsert", constant.OtelRepositoryScopeName, repo.entitas))
	defer scope.End()

	query := repo.upsertQuery()
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	_, err := repo.db.Write.NamedExecContext(ctx, query, model)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to upsert data (%s): %w", repo.entitas, err)
	}

	return nil
}

// Delete removes the row with the given primary key and reports whether one existed.
func (repo *Table[T]) Delete(ctx context.Context, id any) (bool, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.Delete", constant.OtelRepositoryScopeName, repo.entitas))
	defer scope.End()

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", repo.table, repo.primaryColumn)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	result, err := repo.db.Write.ExecContext(ctx, query, id)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return false, fmt.Errorf("failed to delete data (%s): %w", repo.entitas, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		scope.TraceError(err)

		return false, fmt.Errorf("failed to read affected rows (%s): %w", repo.entitas, err)
	}

	return affected > 0, nil
}

func (repo *Table[T]) selectAllQuery() string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", repo.selectColumns(), repo.table, repo.primaryColumn)
}

func (repo *Table[T]) selectByIDQuery() string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", repo.selectColumns(), repo.table, repo.primaryColumn)
}

func (repo *Table[T]) upsertQuery() string {
	placeholders := make([]string, 0, len(repo.InsertColumns))
	updates := make([]string, 0, len(repo.InsertColumns))

	for _, col := range repo.InsertColumns {
		placeholders = append(placeholders, ":"+col)

		if col != repo.primaryColumn {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		}
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s)",
		repo.table,
		strings.Join(repo.InsertColumns, ", "),
		strings.Join(placeholders, ", "),
		repo.primaryColumn,
	)

	if len(updates) == 0 {
		return query + " DO NOTHING"
	}

	return query + " DO UPDATE SET " + strings.Join(updates, ", ")
}

func (repo *Table[T]) selectColumns() string {
	columns := make([]string, 0, len(repo.columns))

	for _, col := range repo.columns {
		switch {
		case col.table == "":
			columns = append(columns, col.name)
		case col.alias != "":
			columns = append(columns, fmt.Sprintf("%s.%s AS %s", col.table, col.name, col.alias))
		default:
			columns = append(columns, fmt.Sprintf("%s.%s", col.table, col.name))
		}
	}

	return strings.Join(columns, ", ")
}

func getColumns(table string, reflectType reflect.Type) (columns []column, insertColumns []string) {
	for i := range reflectType.NumField() {
		field := reflectType.Field(i)
		dbTag := field.Tag.Get("db")
		tableField := field.Tag.Get("table")
		colTag := field.Tag.Get("column")

		if tableField == "" {
			tableField = table
		}

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			col, insertCol := getColumns(table, field.Type)
			columns = append(columns, col...)
			insertColumns = append(insertColumns, insertCol...)
		}

		if dbTag == "" || dbTag == "-" {
			continue
		}

		if tableField == table {
			insertColumns = append(insertColumns, dbTag)
		}

		if colTag == "" {
			columns = append(columns, column{name: dbTag, table: tableField})
		} else {
			columns = append(columns, column{name: colTag, table: tableField, alias: dbTag})
		}
	}

	return columns, insertColumns
}
