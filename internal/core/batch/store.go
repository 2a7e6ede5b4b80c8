// Package batch acumula os CT-es extraídos em lotes mensais, chaveados por
// YYYY-MM, para posterior exportação em planilha.
package batch

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"cte-service/internal/domain"
)

const bucketName = "ctes"

// Store define a interface do armazenamento mensal de CT-es.
type Store interface {
	// Append adiciona um CT-e ao lote do mês derivado da data de emissão
	// (mês corrente quando a data não é parseável) e devolve a chave usada.
	// Não deduplica por conteúdo: o mesmo PDF processado duas vezes gera
	// duas entradas.
	Append(cte domain.CTe) (domain.MonthKey, error)

	// List devolve a sequência armazenada para o mês, vazia quando o lote
	// não existe.
	List(year, month int) ([]domain.CTe, error)

	// Count devolve o tamanho do lote do mês, 0 quando ausente.
	Count(year, month int) (int, error)

	// Delete remove o primeiro CT-e do lote cuja chave de acesso é igual à
	// informada. Chave ausente no lote, ou lote ausente, não é erro.
	Delete(chaveAcesso string, year, month int) error

	// DeleteAt remove o CT-e na posição dada, para registros sem chave de
	// acesso. Posição fora do intervalo não é erro.
	DeleteAt(position, year, month int) error

	// ClearMonth remove a entrada inteira do mês.
	ClearMonth(year, month int) error

	// Close fecha o banco de dados.
	Close() error
}

// BoltStore implementa Store sobre bbolt.
type BoltStore struct {
	db  *bbolt.DB
	now func() time.Time
}

// NewBoltStore abre (ou cria) o banco no caminho dado.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("abrindo banco de dados: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("criando bucket: %w", err)
	}

	return &BoltStore{db: db, now: time.Now}, nil
}

// NewBoltStoreWithClock cria o store com um relógio injetado, para testes do
// fallback de mês corrente.
func NewBoltStoreWithClock(path string, now func() time.Time) (*BoltStore, error) {
	store, err := NewBoltStore(path)
	if err != nil {
		return nil, err
	}
	store.now = now
	return store, nil
}

func (s *BoltStore) monthKeyFor(cte domain.CTe) domain.MonthKey {
	if key, ok := domain.MonthKeyFromEmissao(cte.DataEmissao); ok {
		return key
	}
	t := s.now()
	return domain.MonthKey{Year: t.Year(), Month: int(t.Month())}
}

// Append faz o read-modify-write do lote dentro de uma única transação
// Update. O bbolt serializa transações de escrita, então dois appends quase
// simultâneos para o mesmo mês nunca perdem uma atualização.
func (s *BoltStore) Append(cte domain.CTe) (domain.MonthKey, error) {
	key := s.monthKeyFor(cte)
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		ctes, err := decodeMonth(bucket.Get([]byte(key.String())))
		if err != nil {
			return err
		}
		ctes = append(ctes, cte)
		return putMonth(bucket, key, ctes)
	})
	if err != nil {
		return domain.MonthKey{}, fmt.Errorf("gravando CT-e no lote %s: %w", key, err)
	}
	return key, nil
}

// List devolve os CT-es do mês na ordem de inserção.
func (s *BoltStore) List(year, month int) ([]domain.CTe, error) {
	key := domain.MonthKey{Year: year, Month: month}
	var ctes []domain.CTe
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		var err error
		ctes, err = decodeMonth(bucket.Get([]byte(key.String())))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("lendo lote %s: %w", key, err)
	}
	return ctes, nil
}

// Count devolve o tamanho do lote do mês.
func (s *BoltStore) Count(year, month int) (int, error) {
	ctes, err := s.List(year, month)
	if err != nil {
		return 0, err
	}
	return len(ctes), nil
}

// Delete remove o primeiro CT-e com a chave de acesso dada.
func (s *BoltStore) Delete(chaveAcesso string, year, month int) error {
	return s.removeWhere(year, month, func(ctes []domain.CTe) int {
		for i, cte := range ctes {
			if cte.ChaveAcesso == chaveAcesso {
				return i
			}
		}
		return -1
	})
}

// DeleteAt remove o CT-e na posição dada.
func (s *BoltStore) DeleteAt(position, year, month int) error {
	return s.removeWhere(year, month, func(ctes []domain.CTe) int {
		if position < 0 || position >= len(ctes) {
			return -1
		}
		return position
	})
}

func (s *BoltStore) removeWhere(year, month int, locate func([]domain.CTe) int) error {
	key := domain.MonthKey{Year: year, Month: month}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		ctes, err := decodeMonth(bucket.Get([]byte(key.String())))
		if err != nil {
			return err
		}
		i := locate(ctes)
		if i < 0 {
			return nil
		}
		ctes = append(ctes[:i], ctes[i+1:]...)
		return putMonth(bucket, key, ctes)
	})
	if err != nil {
		return fmt.Errorf("removendo CT-e do lote %s: %w", key, err)
	}
	return nil
}

// ClearMonth apaga a entrada do mês por inteiro.
func (s *BoltStore) ClearMonth(year, month int) error {
	key := domain.MonthKey{Year: year, Month: month}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(key.String()))
	})
	if err != nil {
		return fmt.Errorf("limpando lote %s: %w", key, err)
	}
	return nil
}

// Close fecha o banco de dados.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func decodeMonth(data []byte) ([]domain.CTe, error) {
	if data == nil {
		return []domain.CTe{}, nil
	}
	var ctes []domain.CTe
	if err := json.Unmarshal(data, &ctes); err != nil {
		return nil, fmt.Errorf("decodificando lote: %w", err)
	}
	return ctes, nil
}

func putMonth(bucket *bbolt.Bucket, key domain.MonthKey, ctes []domain.CTe) error {
	data, err := json.Marshal(ctes)
	if err != nil {
		return fmt.Errorf("codificando lote: %w", err)
	}
	return bucket.Put([]byte(key.String()), data)
}
